package app

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// 构建时通过 -ldflags "-X 'github.com/lk2023060901/xdooria-inventory/pkg/app.Version=v1.0.0'" 注入
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	AppName   = ""
)

// Info 构建信息
type Info struct {
	AppName   string `json:"app_name"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetInfo 返回当前程序的构建信息，AppName 未注入时取可执行文件名
func GetInfo() Info {
	name := AppName
	if name == "" {
		name = "xdooria-inventory"
		if execPath, err := os.Executable(); err == nil {
			name = filepath.Base(execPath)
		}
	}
	return Info{
		AppName:   name,
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func (i Info) String() string {
	return fmt.Sprintf("%s %s (commit: %s, build: %s, go: %s, plat: %s)",
		i.AppName, i.Version, i.GitCommit, i.BuildDate, i.GoVersion, i.Platform)
}
