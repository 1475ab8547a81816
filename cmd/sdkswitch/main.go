package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/liangyou/sdkswitch/internal/cli"
	"github.com/liangyou/sdkswitch/internal/config"
	"github.com/liangyou/sdkswitch/internal/link"
	"github.com/liangyou/sdkswitch/internal/platform"
	"github.com/liangyou/sdkswitch/internal/remote"
	"github.com/liangyou/sdkswitch/internal/storage"
	"github.com/liangyou/sdkswitch/internal/version"
)

const appVersion = "0.1.0"

func main() {
	logrus.SetOutput(os.Stderr)
	logrus.SetLevel(logrus.WarnLevel)

	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	paths := platform.NewPaths()
	cfgManager := config.NewManager(paths)

	cfg, err := cfgManager.Load()
	if err != nil {
		return err
	}

	configPath, err := cfgManager.Path()
	if err != nil {
		return err
	}
	cacheDir, err := cfgManager.CacheDir(cfg)
	if err != nil {
		return err
	}
	linkPath, err := cfgManager.LinkPath(cfg)
	if err != nil {
		return err
	}
	downloadsDir, err := cfgManager.DownloadsDir(cfg)
	if err != nil {
		return err
	}

	if err := paths.Validate(cacheDir); err != nil {
		return err
	}

	store := storage.NewStore(cacheDir, linkPath)
	checker := remote.NewClient()
	downloader := version.NewDownloader(
		version.WithDownloadsDir(downloadsDir),
		version.WithProgressFunc(progressLogger()),
	)
	installer := version.NewInstaller(store, downloader)
	remover := version.NewRemover(store)
	activator := link.NewActivator(linkPath, cfgManager)

	app := cli.NewApp(os.Stdout, cli.Services{
		Store:     store,
		Installer: installer,
		Remover:   remover,
		Activator: activator,
		Checker:   checker,
	}, configPath, cacheDir, appVersion)

	return app.Run(args)
}

// progressLogger 每完成约一成进度输出一条 debug 日志。
func progressLogger() version.ProgressFunc {
	var lastDecile int64 = -1
	return func(downloaded, total int64) {
		if total <= 0 {
			return
		}
		decile := downloaded * 10 / total
		if decile > lastDecile {
			lastDecile = decile
			logrus.Debugf("downloaded %d%% (%d/%d bytes)", decile*10, downloaded, total)
		}
	}
}
