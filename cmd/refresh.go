package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "执行一次物流状态刷新",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		report, err := a.poller.RunOnce(ctx)
		if err != nil {
			return fmt.Errorf("refresh sweep failed: %w", err)
		}
		if !report.Locked {
			fmt.Println("另一个刷新任务正在执行，本次跳过")
			return nil
		}
		fmt.Printf("选中 %d，查询 %d，无运单号 %d，失败 %d，签收 %d，退回签收 %d\n",
			report.Selected, report.Polled, report.NoAWB, report.Failed, report.Delivered, report.RTODelivered)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}
