package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

func DevCmd() *cobra.Command {
	var proxyPort, appPort string

	c := &cobra.Command{
		Use:   "dev",
		Short: "Run the server under air with hot reload",
		Long: `Builds bin/do, then execs air. air rebuilds the stylesheet and the
server on every change and proxies the browser port to the app port so
pages reload after each build.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDev(proxyPort, appPort)
		},
	}
	c.Flags().StringVar(&proxyPort, "proxy-port", "8080", "port the browser talks to")
	c.Flags().StringVar(&appPort, "app-port", "8090", "port the server listens on")
	return c
}

func runDev(proxyPort, appPort string) error {
	airPath, err := exec.LookPath("air")
	if err != nil {
		fmt.Println("Missing binary: air")
		fmt.Println("Install with:")
		fmt.Println("  go install github.com/air-verse/air@latest")
		return fmt.Errorf("air not found")
	}

	fmt.Println("Building bin/do...")
	build := exec.Command("go", "build", "-o", "bin/do", "./cmd/do")
	build.Stdout = os.Stdout
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		return fmt.Errorf("build bin/do: %w", err)
	}

	watched := []string{"go", "templ", "css", "js", "sql", "md"}
	airArgs := []string{
		"air",
		"-c", "/dev/null",
		"-root", ".",
		"-build.cmd", "./bin/do gen && go build -o ./tmp/main ./cmd/server",
		"-build.bin", "./tmp/main",
		"-build.delay", "100",
		"-build.exclude_dir", "bin,node_modules,tmp,data",
		"-build.exclude_regex", `_templ\.go$|_test\.go$|output\.css$`,
		"-build.include_ext", strings.Join(watched, ","),
		"-build.kill_delay", "500ms",
		"-build.send_interrupt", "true",
		"-proxy.enabled", "true",
		"-proxy.proxy_port", proxyPort,
		"-proxy.app_port", appPort,
	}

	env := append(os.Environ(), "PORT="+appPort)
	return syscall.Exec(airPath, airArgs, env)
}
