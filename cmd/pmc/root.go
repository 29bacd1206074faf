package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/PMC/internal/geocode"
)

func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pmc",
		Short:         "按拍摄日期与地点整理照片和视频",
		Long:          "pmc 读取照片/视频的拍摄时间与 GPS 地理标签，把同一地点连续拍摄的文件归为一个 run，并复制到以日期和地点命名的目录中。",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newProvidersCmd(),
	)
	return rootCmd
}

func newProvidersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "列出内置的逆地理编码 provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := geocode.NewRegistry(geocode.Builtin(geocode.ProviderOptions{})...)
			if err != nil {
				return fmt.Errorf("初始化 provider registry 失败：%w", err)
			}
			for _, name := range reg.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
