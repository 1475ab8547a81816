package models

import "errors"

// 各子系统共享的错误类别，调用方通过 errors.Is 判断。
var (
	// ErrNotFound 表示本地或远程均不存在目标版本。
	ErrNotFound = errors.New("version not found")
	// ErrAmbiguousMatch 表示部分版本号命中了多个已安装版本。
	ErrAmbiguousMatch = errors.New("ambiguous version match")
	// ErrBadVersion 表示版本号格式非法。
	ErrBadVersion = errors.New("bad version string")
	// ErrNoActiveVersion 表示当前没有激活的版本。
	ErrNoActiveVersion = errors.New("no active version")
	// ErrDanglingLink 表示激活软链的目标目录已不存在。
	ErrDanglingLink = errors.New("active link target is missing")
)
