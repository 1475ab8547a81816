package models

// PayloadDirName 是 SDK 压缩包内的顶层目录名，也是激活软链的名字。
const PayloadDirName = "google_appengine"

// Config 保存 sdkswitch 的全局配置，与配置文件内容一一对应。
type Config struct {
	Link     string // 软链所在目录的原始配置值，可包含 ~
	CacheDir string // SDK 缓存目录的原始配置值，空表示使用配置目录
}

// DefaultConfig 返回默认配置：软链建在用户主目录，缓存目录跟随配置目录。
func DefaultConfig() Config {
	return Config{Link: "~/", CacheDir: ""}
}
