package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"school-timetable/internal/model"
)

// ── ICS 导出 ────────────────────────────────────────────────
//
// 职责：将时间表转为 iCalendar (RFC 5545) 周重复事件。
//
//   - 首周由 weekOf 所在周的周一确定，DTSTART/DTEND 以配置时区的本地时间加 TZID 写出，
//     周重复跨越夏令时切换时仍保持墙上时间；时区为 UTC 时直接写 UTC
//   - startTime/endTime 缺失、格式错误或 end <= start 的 slot 不生成事件
//   - 星期名无法识别的天整体跳过
//   - UID 由 时间表 _id + 天 + 序号 派生，重复导出得到相同 UID
// ─────────────────────────────────────────────────────────────

const icsProductID = "-//school-timetable//timetable export//EN"

var weekdayOffset = map[string]int{
	"monday":    0,
	"tuesday":   1,
	"wednesday": 2,
	"thursday":  3,
	"friday":    4,
	"saturday":  5,
	"sunday":    6,
}

func (s *exportService) ExportICS(ctx context.Context, className string, weekOf time.Time) (string, string, error) {
	tt, err := s.load(ctx, className)
	if err != nil {
		return "", "", err
	}

	if weekOf.IsZero() {
		weekOf = s.now()
	}
	monday := weekStart(weekOf.In(s.location))
	stamp := s.now().UTC()

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(icsProductID)
	cal.SetXWRCalName(fmt.Sprintf("%s timetable", tt.ClassName))
	if s.location != time.UTC {
		cal.SetXWRTimezone(s.location.String())
	}

	events := 0
	for _, d := range tt.Days {
		offset, ok := weekdayOffset[strings.ToLower(strings.TrimSpace(d.Name))]
		if !ok {
			s.logger.Debug("跳过无法识别的星期", zap.String("class_name", tt.ClassName), zap.String("day", d.Name))
			continue
		}
		date := monday.AddDate(0, 0, offset)

		for i, sl := range d.Slots {
			start, end, ok := slotWindow(date, sl.StartTime, sl.EndTime)
			if !ok {
				continue
			}
			evt := cal.AddEvent(eventUID(tt, d.Name, fmt.Sprintf("%d", i)))
			evt.SetDtStampTime(stamp)
			setEventWindow(evt, start, end)
			evt.SetSummary(slotSummary(sl))
			if sl.Room != "" {
				evt.SetLocation(sl.Room)
			}
			if sl.Teacher != "" {
				evt.SetDescription("Teacher: " + sl.Teacher)
			}
			evt.AddProperty(ics.ComponentPropertyRrule, "FREQ=WEEKLY")
			events++
		}

		if start, end, ok := slotWindow(date, tt.BreakTime.Start, tt.BreakTime.End); ok {
			evt := cal.AddEvent(eventUID(tt, d.Name, "break"))
			evt.SetDtStampTime(stamp)
			setEventWindow(evt, start, end)
			evt.SetSummary("Break")
			evt.AddProperty(ics.ComponentPropertyRrule, "FREQ=WEEKLY")
			events++
		}
	}

	s.logger.Info("时间表已导出为 ICS",
		zap.String("class_name", tt.ClassName),
		zap.String("week_of", monday.Format("2006-01-02")),
		zap.Int("events", events),
	)

	return cal.Serialize(), fmt.Sprintf("timetable_%s.ics", fileSafe(tt.ClassName)), nil
}

const icsLocalLayout = "20060102T150405"

// setEventWindow 写入 DTSTART/DTEND；非 UTC 时区写本地时间并带 TZID
func setEventWindow(evt *ics.VEvent, start, end time.Time) {
	loc := start.Location()
	if loc == time.UTC {
		evt.SetStartAt(start)
		evt.SetEndAt(end)
		return
	}
	tzid := &ics.KeyValues{Key: string(ics.ParameterTzid), Value: []string{loc.String()}}
	evt.SetProperty(ics.ComponentPropertyDtStart, start.Format(icsLocalLayout), tzid)
	evt.SetProperty(ics.ComponentPropertyDtEnd, end.Format(icsLocalLayout), tzid)
}

// weekStart 返回 t 所在周周一 00:00（保持 t 的时区）
func weekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
}

// slotWindow 将 HH:MM 解析到 date 当天；任一无效或 end <= start 时 ok=false
func slotWindow(date time.Time, startHHMM, endHHMM string) (time.Time, time.Time, bool) {
	sh, sm, ok := parseClock(startHHMM)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	eh, em, ok := parseClock(endHHMM)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	y, m, d := date.Date()
	start := time.Date(y, m, d, sh, sm, 0, 0, date.Location())
	end := time.Date(y, m, d, eh, em, 0, 0, date.Location())
	if !end.After(start) {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func parseClock(s string) (int, int, bool) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, false
	}
	return t.Hour(), t.Minute(), true
}

func slotSummary(sl model.Slot) string {
	if sl.Course == "" {
		return "Free period"
	}
	return sl.Course
}

func eventUID(tt *model.Timetable, day, part string) string {
	key := strings.Join([]string{tt.ID.Hex(), tt.ClassName, day, part}, "/")
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String() + "@school-timetable"
}
