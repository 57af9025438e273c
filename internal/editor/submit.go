package editor

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Submit 提交当前网格
//
// 每次调用恰好调用一次 Submitter，不重试。结果记录为可关闭的 Notification；
// 失败时网格保持不变，可手动重试。提交进行中再次调用返回 ErrSubmitInFlight。
func (e *Editor) Submit(ctx context.Context) (Notification, error) {
	e.mu.Lock()
	if e.submitting {
		e.mu.Unlock()
		return Notification{}, ErrSubmitInFlight
	}
	if e.class == nil || e.department == "" {
		e.mu.Unlock()
		return Notification{}, ErrGridLocked
	}
	req := e.payload()
	e.submitting = true
	e.stage = StageSubmitting
	e.openDay, e.openSlot = -1, -1
	e.mu.Unlock()

	err := e.submitter.CreateTimetable(ctx, req)

	n := Notification{Kind: NotifySuccess, Message: SuccessMessage}
	if err != nil {
		n = Notification{Kind: NotifyError, Message: failureMessage(err)}
		e.logger.Warn("提交时间表失败", zap.String("class_name", req.ClassName), zap.Error(err))
	}

	e.mu.Lock()
	e.submitting = false
	e.stage = StageEditingGrid
	e.notification = &n
	e.mu.Unlock()

	return n, err
}

// Notification 最近一次提交结果；已关闭或尚未提交时 ok=false
func (e *Editor) Notification() (Notification, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.notification == nil {
		return Notification{}, false
	}
	return *e.notification, true
}

// DismissNotification 关闭提示
func (e *Editor) DismissNotification() {
	e.mu.Lock()
	e.notification = nil
	e.mu.Unlock()
}

// failureMessage 优先使用服务端返回的 error 文案
func failureMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return FailureMessage
}
