package editor

import (
	"time"

	"school-timetable/internal/dto"
)

// ── 网格编辑 ──────────────────────────────────────────────
//
// 每次编辑只替换被编辑的那一天：复制该天的 slots，修改其中一格，
// 再换入新的 days 切片。其他天的 slots 与旧快照共享且从不原地修改，
// 因此 Days() 之前取得的快照不受后续编辑影响。
// ─────────────────────────────────────────────────────────────

// AddSlots 在 day 末尾追加 n 个空时间段
func (e *Editor) AddSlots(day, n int) error {
	if n < 0 {
		return ErrInvalidSlotCount
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkEditable(); err != nil {
		return err
	}
	if day < 0 || day >= len(e.days) {
		return ErrDayOutOfRange
	}
	if n == 0 {
		return nil
	}

	old := e.days[day].Slots
	slots := make([]dto.SlotPayload, len(old), len(old)+n)
	copy(slots, old)
	slots = append(slots, make([]dto.SlotPayload, n)...)
	e.replaceDay(day, slots)
	return nil
}

// OpenSlot 打开一个时间段进行编辑
func (e *Editor) OpenSlot(day, slot int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkEditable(); err != nil {
		return err
	}
	if err := e.checkIndex(day, slot); err != nil {
		return err
	}
	e.openDay, e.openSlot = day, slot
	e.stage = StageEditingSlot
	return nil
}

// CloseSlot 关闭时间段编辑，回到网格
func (e *Editor) CloseSlot() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.openDay, e.openSlot = -1, -1
	if e.stage == StageEditingSlot {
		e.stage = StageEditingGrid
	}
}

// OpenSlotIndex 当前打开的时间段；未打开时 ok=false
func (e *Editor) OpenSlotIndex() (day, slot int, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.openDay, e.openSlot, e.openDay >= 0
}

// SetSlotField 修改一个时间段的单个字段
//
// 时间须为 HH:MM，教室须来自 Rooms()，课程须属于所选班级；空字符串表示清空。
func (e *Editor) SetSlotField(day, slot int, field Field, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkEditable(); err != nil {
		return err
	}
	if err := e.checkIndex(day, slot); err != nil {
		return err
	}

	var apply func(*dto.SlotPayload)
	switch field {
	case FieldStartTime, FieldEndTime:
		if !validClock(value) {
			return ErrInvalidTime
		}
		if field == FieldStartTime {
			apply = func(s *dto.SlotPayload) { s.StartTime = value }
		} else {
			apply = func(s *dto.SlotPayload) { s.EndTime = value }
		}
	case FieldCourse:
		if value != "" && !contains(e.class.Courses, value) {
			return ErrUnknownCourse
		}
		apply = func(s *dto.SlotPayload) { s.Course = value }
	case FieldRoom:
		if value != "" && !contains(rooms, value) {
			return ErrUnknownRoom
		}
		apply = func(s *dto.SlotPayload) { s.Room = value }
	default:
		return ErrUnknownField
	}

	e.editSlot(day, slot, apply)
	return nil
}

// AssignTeacher 同时设置 teacher（全名）与 teacherId；teacherID 为空时清空二者
func (e *Editor) AssignTeacher(day, slot int, teacherID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkEditable(); err != nil {
		return err
	}
	if err := e.checkIndex(day, slot); err != nil {
		return err
	}

	if teacherID == "" {
		e.editSlot(day, slot, func(s *dto.SlotPayload) { s.Teacher, s.TeacherID = "", "" })
		return nil
	}
	for _, t := range e.teachers {
		if t.ID == teacherID {
			name := fullName(t)
			e.editSlot(day, slot, func(s *dto.SlotPayload) { s.Teacher, s.TeacherID = name, t.ID })
			return nil
		}
	}
	return ErrUnknownTeacher
}

// ────────────────────── 课间休息 ──────────────────────

func (e *Editor) OpenBreak() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkEditable(); err != nil {
		return err
	}
	e.openDay, e.openSlot = -1, -1
	e.stage = StageEditingBreak
	return nil
}

func (e *Editor) CloseBreak() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stage == StageEditingBreak {
		e.stage = StageEditingGrid
	}
}

func (e *Editor) SetBreakStart(value string) error {
	return e.setBreak(value, func(b *dto.BreakTimePayload) { b.Start = value })
}

func (e *Editor) SetBreakEnd(value string) error {
	return e.setBreak(value, func(b *dto.BreakTimePayload) { b.End = value })
}

func (e *Editor) setBreak(value string, apply func(*dto.BreakTimePayload)) error {
	if !validClock(value) {
		return ErrInvalidTime
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkEditable(); err != nil {
		return err
	}
	apply(&e.breakTime)
	return nil
}

// BreakTime 当前课间休息
func (e *Editor) BreakTime() dto.BreakTimePayload {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.breakTime
}

// ────────────────────── 快照 ──────────────────────

// Days 网格深拷贝
func (e *Editor) Days() []dto.DayPayload {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneDays(e.days)
}

// Payload 当前网格对应的提交内容
func (e *Editor) Payload() *dto.CreateTimetableRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.payload()
}

func (e *Editor) payload() *dto.CreateTimetableRequest {
	req := &dto.CreateTimetableRequest{
		Department: e.department,
		Days:       cloneDays(e.days),
		BreakTime:  e.breakTime,
	}
	if e.class != nil {
		req.ClassName = e.class.ClassName
	}
	return req
}

// ── 内部辅助方法（调用方持有锁）──

func (e *Editor) checkEditable() error {
	if e.submitting {
		return ErrSubmitInFlight
	}
	if e.class == nil || e.department == "" {
		return ErrGridLocked
	}
	return nil
}

func (e *Editor) checkIndex(day, slot int) error {
	if day < 0 || day >= len(e.days) {
		return ErrDayOutOfRange
	}
	if slot < 0 || slot >= len(e.days[day].Slots) {
		return ErrSlotOutOfRange
	}
	return nil
}

func (e *Editor) editSlot(day, slot int, apply func(*dto.SlotPayload)) {
	old := e.days[day].Slots
	slots := make([]dto.SlotPayload, len(old))
	copy(slots, old)
	apply(&slots[slot])
	e.replaceDay(day, slots)
}

func (e *Editor) replaceDay(day int, slots []dto.SlotPayload) {
	days := make([]dto.DayPayload, len(e.days))
	copy(days, e.days)
	days[day] = dto.DayPayload{Name: e.days[day].Name, Slots: slots}
	e.days = days
}

func cloneDays(days []dto.DayPayload) []dto.DayPayload {
	out := make([]dto.DayPayload, len(days))
	for i, d := range days {
		slots := make([]dto.SlotPayload, len(d.Slots))
		copy(slots, d.Slots)
		out[i] = dto.DayPayload{Name: d.Name, Slots: slots}
	}
	return out
}

// validClock 空字符串或 24 小时制 HH:MM
func validClock(s string) bool {
	if s == "" {
		return true
	}
	if len(s) != 5 {
		return false
	}
	_, err := time.Parse("15:04", s)
	return err == nil
}

func fullName(t dto.TeacherResponse) string {
	if t.LastName == "" {
		return t.FirstName
	}
	return t.FirstName + " " + t.LastName
}
