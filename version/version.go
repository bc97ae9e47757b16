// Package version 提供 bidctl 的构建信息。
// 发布构建通过 -ldflags 注入，例如
//
//	-X github.com/Ducr/taro-mobile-open/version.gitVersion=v1.2.0
//
// 未注入时从 go 工具链写入二进制的 vcs 信息中补全。
package version

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/gosuri/uitable"
)

// AppName 是 User-Agent 中的产品名
const AppName = "bidctl"

const devVersion = "v0.0.0-dev"

var (
	// gitVersion 语义化版本号 vMAJOR.MINOR.PATCH[-PRERELEASE]
	gitVersion = devVersion
	// gitCommit $(git rev-parse HEAD)
	gitCommit = ""
	// gitTreeState clean 或 dirty
	gitTreeState = ""
	// buildDate $(date -u +'%Y-%m-%dT%H:%M:%SZ')
	buildDate = ""
)

// Info 构建信息
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	TreeState string `json:"treeState,omitempty"`
	BuildDate string `json:"buildDate,omitempty"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// Get 返回当前二进制的构建信息
func Get() Info {
	info := Info{
		Version:   gitVersion,
		Commit:    gitCommit,
		TreeState: gitTreeState,
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if info.Commit == "" {
		if bi, ok := debug.ReadBuildInfo(); ok {
			info.fill(bi)
		}
	}
	return info
}

func (info *Info) fill(bi *debug.BuildInfo) {
	if info.Version == devVersion && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Commit = s.Value
		case "vcs.time":
			if info.BuildDate == "" {
				info.BuildDate = s.Value
			}
		case "vcs.modified":
			if s.Value == "true" {
				info.TreeState = "dirty"
			} else {
				info.TreeState = "clean"
			}
		}
	}
}

// String 返回版本号，工作区有未提交修改时带 -dirty 后缀
func (info Info) String() string {
	if info.TreeState == "dirty" {
		return info.Version + "-dirty"
	}
	return info.Version
}

// UserAgent 形如 "bidctl/v1.2.0 (linux/amd64; go1.23.0)"
func (info Info) UserAgent() string {
	return fmt.Sprintf("%s/%s (%s; %s)", AppName, info, info.Platform, info.GoVersion)
}

// Text 以对齐的两列文本返回构建信息，空字段不输出
func (info Info) Text() string {
	table := uitable.New()
	table.RightAlign(0)
	table.Separator = " "
	for _, row := range [][2]string{
		{"version:", info.Version},
		{"commit:", info.Commit},
		{"treeState:", info.TreeState},
		{"buildDate:", info.BuildDate},
		{"goVersion:", info.GoVersion},
		{"platform:", info.Platform},
	} {
		if row[1] != "" {
			table.AddRow(row[0], row[1])
		}
	}
	return table.String()
}

// Write 按 text、json 或 short 格式输出
func (info Info) Write(w io.Writer, format string) error {
	switch strings.ToLower(format) {
	case "", "text":
		_, err := fmt.Fprintln(w, info.Text())
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	case "short":
		_, err := fmt.Fprintln(w, info.String())
		return err
	}
	return fmt.Errorf("version: unknown output format %q (text, json, short)", format)
}
