package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/liangyou/sdkswitch/pkg/models"
)

// VersionStore 描述本地版本查询能力。
type VersionStore interface {
	List() ([]models.InstalledSDK, error)
	Find(partial string) (models.InstalledSDK, error)
	Active() (models.InstalledSDK, error)
}

// InstallService 描述安装能力。
type InstallService interface {
	Install(ctx context.Context, version string) (models.InstalledSDK, error)
}

// RemoveService 描述卸载能力。
type RemoveService interface {
	Remove(partial string) (models.InstalledSDK, error)
}

// ActivateService 描述激活软链的管理能力。
type ActivateService interface {
	Activate(sdk models.InstalledSDK) error
	SetLinkDir(dir string) error
	LinkPath() string
}

// RemoteChecker 描述远程最新版本查询能力。
type RemoteChecker interface {
	LatestVersion(ctx context.Context) (string, error)
}

// Services 汇集各子命令依赖的领域服务。
type Services struct {
	Store     VersionStore
	Installer InstallService
	Remover   RemoveService
	Activator ActivateService
	Checker   RemoteChecker
}

// App 负责 CLI 命令解析与分发，每次调用都是无状态的。
type App struct {
	out        io.Writer
	services   Services
	configPath string
	cacheDir   string
	version    string
}

// NewApp 创建 CLI 应用实例。
func NewApp(out io.Writer, services Services, configPath, cacheDir, appVersion string) *App {
	if out == nil {
		out = os.Stdout
	}
	return &App{
		out:        out,
		services:   services,
		configPath: configPath,
		cacheDir:   cacheDir,
		version:    appVersion,
	}
}

// Run 解析参数并执行命令。
func (a *App) Run(args []string) error {
	var verbose bool

	root := &cobra.Command{
		Use:     "sdkswitch",
		Short:   "Manage local App Engine SDK installations",
		Version: a.version,
		Args:    cobra.NoArgs,
		// 不带子命令时先输出概要再输出帮助。
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.printSummary(); err != nil {
				return err
			}
			fmt.Fprintln(a.out)
			return cmd.Help()
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")
	root.SetOut(a.out)

	root.AddCommand(
		a.newSummaryCmd(),
		a.newInstallCmd(),
		a.newDownloadCmd(),
		a.newActivateCmd(),
		a.newCheckCmd(),
		a.newRemoveCmd(),
		a.newLinkCmd(),
	)

	// SetArgs(nil) 会回退到 os.Args，必须传入空切片。
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	return root.Execute()
}

func (a *App) newSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "List installed SDK versions and mark the active one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.printSummary()
		},
	}
}

func (a *App) newInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install <version|latest>",
		Short: "Download, extract and activate an SDK version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := a.resolveVersion(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Installing SDK version %s\n", version)
			sdk, err := a.services.Installer.Install(cmd.Context(), version)
			if err != nil {
				return err
			}
			if err := a.services.Activator.Activate(sdk); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "SDK version %s is now active.\n", sdk.Version)
			return nil
		},
	}
}

func (a *App) newDownloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "download <version|latest>",
		Aliases: []string{"dl"},
		Short:   "Download and extract an SDK version without activating it",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := a.resolveVersion(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Downloading SDK version %s\n", version)
			sdk, err := a.services.Installer.Install(cmd.Context(), version)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Installed SDK version %s at %s\n", sdk.Version, sdk.Path)
			return nil
		},
	}
}

func (a *App) newActivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "activate <version>",
		Aliases: []string{"ac"},
		Short:   "Point the SDK symlink at an installed version",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sdk, err := a.services.Store.Find(args[0])
			if err != nil {
				return err
			}
			if err := a.services.Activator.Activate(sdk); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "SDK version %s is now active.\n", sdk.Version)
			return nil
		},
	}
}

func (a *App) newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check the remote source for the latest SDK version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := a.services.Checker.LatestVersion(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Latest version: %s\n", version)
			return nil
		},
	}
}

func (a *App) newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <version>",
		Aliases: []string{"rm"},
		Short:   "Delete an installed SDK version",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(a.out, "Removing SDK version %s\n", args[0])
			sdk, err := a.services.Remover.Remove(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Removed %s\n", sdk.Path)
			return nil
		},
	}
}

func (a *App) newLinkCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "link <path>",
		Aliases: []string{"ln"},
		Short:   "Change the directory that holds the SDK symlink",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.services.Activator.SetLinkDir(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "SDK symlink is now %s\n", a.services.Activator.LinkPath())
			return nil
		},
	}
}

// printSummary 输出配置位置、已安装版本列表，并标记激活版本。
func (a *App) printSummary() error {
	sdks, err := a.services.Store.List()
	if err != nil {
		return err
	}

	linkNote := ""
	if _, err := a.services.Store.Active(); err != nil {
		switch {
		case errors.Is(err, models.ErrDanglingLink):
			linkNote = " (dangling)"
		case errors.Is(err, models.ErrNoActiveVersion):
			// 没有软链不算异常。
		default:
			return err
		}
	}

	fmt.Fprintf(a.out, "Reading preferences from %s\n", a.configPath)
	fmt.Fprintf(a.out, "%d SDKs in %s\n", len(sdks), a.cacheDir)
	fmt.Fprintf(a.out, "SDK symlink is %s%s\n", a.services.Activator.LinkPath(), linkNote)
	fmt.Fprintln(a.out)

	for _, sdk := range sdks {
		flag := ""
		if sdk.IsActive {
			flag = " *"
		}
		fmt.Fprintf(a.out, "%10s%s\n", sdk.Version, flag)
	}
	return nil
}

// resolveVersion 解析命令行里的版本参数：latest 走远程查询，
// 完整版本号原样返回，其余按部分版本号在已安装版本里匹配。
func (a *App) resolveVersion(ctx context.Context, input string) (string, error) {
	if input == "latest" {
		return a.services.Checker.LatestVersion(ctx)
	}
	if models.IsFullVersion(input) {
		return models.ParseVersion(input)
	}
	sdk, err := a.services.Store.Find(input)
	if err != nil {
		return "", err
	}
	return sdk.Version, nil
}
