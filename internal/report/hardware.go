package report

import (
	"context"
	"errors"
	"fmt"
)

// CredentialScanner 工牌读卡器。Start 获取设备，Stop 释放。
type CredentialScanner interface {
	Start(ctx context.Context) error
	Scan(ctx context.Context) (string, error)
	Stop() error
}

// Camera 摄像头。Open 获取视频流，Close 释放。
type Camera interface {
	Open(ctx context.Context) error
	Capture(ctx context.Context) ([]byte, error)
	Close() error
}

// ScanCredential 读取一次工牌标识。成功、取消、出错时都会释放读卡器。
func ScanCredential(ctx context.Context, scanner CredentialScanner) (serial string, err error) {
	if scanner == nil {
		return "", ErrHardwareUnavailable
	}
	if err := scanner.Start(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrHardwareUnavailable, err)
	}
	defer func() {
		if stopErr := scanner.Stop(); stopErr != nil && err == nil {
			err = fmt.Errorf("释放读卡器失败: %w", stopErr)
		}
	}()

	serial, err = scanner.Scan(ctx)
	if err != nil {
		return "", scanError(ctx, err)
	}
	return serial, nil
}

// CaptureStill 采集一张静态图像。成功、取消、出错时都会关闭摄像头。
func CaptureStill(ctx context.Context, camera Camera) (still []byte, err error) {
	if camera == nil {
		return nil, ErrHardwareUnavailable
	}
	if err := camera.Open(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHardwareUnavailable, err)
	}
	defer func() {
		if closeErr := camera.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("关闭摄像头失败: %w", closeErr)
		}
	}()

	still, err = camera.Capture(ctx)
	if err != nil {
		return nil, scanError(ctx, err)
	}
	if len(still) == 0 {
		return nil, ErrEmptyCapture
	}
	return still, nil
}

// scanError 操作员取消时返回 context 错误，其余视为设备故障
func scanError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrHardwareUnavailable, err)
}
