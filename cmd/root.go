package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "rto_engine",
	Short: "订单生命周期与退回争议服务",
	Long: `rto_engine 负责订单的创建、签收和退回签收，
供应商的一级、二级退回争议，退回入库登记，以及物流状态的定时刷新。`,
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
