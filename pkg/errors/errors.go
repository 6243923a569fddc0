package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：草稿已被其他请求修改
var ErrOptimisticLock = errors.New("日报草稿已被其他操作修改，请刷新后重试")
