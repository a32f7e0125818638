// Package main 蓝奏云命令行客户端
package main

import (
	"os"

	"lanzou-go/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
