package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"coursereg_backend/internals/constants"
	database "coursereg_backend/internals/databases"
	"coursereg_backend/internals/databases/dbtest"
	"coursereg_backend/internals/features/classes/attendance/dto"
	"coursereg_backend/internals/features/classes/attendance/model"
	classModel "coursereg_backend/internals/features/classes/classes/model"
	registrationModel "coursereg_backend/internals/features/classes/registrations/model"
	registrationService "coursereg_backend/internals/features/classes/registrations/service"
	"coursereg_backend/internals/features/classes/schedule"
	"coursereg_backend/internals/features/realtime/hub"
	"coursereg_backend/internals/features/realtime/hub/hubtest"
	helper "coursereg_backend/internals/helpers"
	helperAuth "coursereg_backend/internals/helpers/auth"
	"coursereg_backend/internals/helpers/dbtime"
)

var (
	teacher = helperAuth.Identity{UserID: 10, Roles: []constants.Role{constants.RoleTeacher}}
	ani     = helperAuth.Identity{UserID: 21, Roles: []constants.Role{constants.RoleStudent}}
	budi    = helperAuth.Identity{UserID: 22, Roles: []constants.Role{constants.RoleStudent}}
	outside = helperAuth.Identity{UserID: 99, Roles: []constants.Role{constants.RoleStudent}}
)

type fixture struct {
	svc   *AttendanceService
	db    *gorm.DB
	rec   *hubtest.Recorder
	class classModel.ClassModel
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := dbtest.Open(t, database.Models()...)
	rec := &hubtest.Recorder{}
	ledger := registrationService.NewLedgerService(db, nil, "", nil)

	sched, err := schedule.Parse("mon 09:00-10:00")
	require.NoError(t, err)
	c := classModel.ClassModel{ClassName: "Pemrograman Go", ClassMaxStudents: 30}
	c.SetSchedule(sched)
	require.NoError(t, db.Create(&c).Error)

	for _, sid := range []uint{ani.UserID, budi.UserID} {
		require.NoError(t, db.Create(&registrationModel.RegistrationModel{
			RegistrationClassID:   c.ClassID,
			RegistrationStudentID: sid,
			RegistrationDate:      time.Now().UTC(),
		}).Error)
	}
	return fixture{svc: NewAttendanceService(db, ledger, rec, nil), db: db, rec: rec, class: c}
}

func rowsFor(t *testing.T, db *gorm.DB, classID uint) []model.AttendanceModel {
	t.Helper()
	var out []model.AttendanceModel
	require.NoError(t, db.Where("attendance_class_id = ?", classID).Order("attendance_student_id").Find(&out).Error)
	return out
}

func entry(id uint, st model.Status) dto.AttendanceEntry {
	return dto.AttendanceEntry{StudentID: id, Status: st}
}

/* ---------- sessions ---------- */

func TestOpenSessionKeepsOneActive(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first, err := f.svc.OpenSession(ctx, f.class.ClassID, teacher, dto.OpenSessionRequest{})
	require.NoError(t, err)
	second, err := f.svc.OpenSession(ctx, f.class.ClassID, teacher, dto.OpenSessionRequest{SessionDate: "2026-03-02"})
	require.NoError(t, err)

	var active int64
	require.NoError(t, f.db.Model(&model.ClassSessionModel{}).
		Where("class_session_class_id = ? AND class_session_is_active = ?", f.class.ClassID, true).
		Count(&active).Error)
	assert.Equal(t, int64(1), active)

	cur, err := f.svc.ActiveSession(ctx, f.class.ClassID)
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, second.ClassSessionID, cur.ClassSessionID)
	assert.NotEqual(t, first.ClassSessionID, cur.ClassSessionID)
	assert.Equal(t, "2026-03-02", cur.ClassSessionDate.UTC().Format(dbtime.DateLayout))

	assert.Equal(t, []string{hub.TypeSessionStarted, hub.TypeSessionStarted}, f.rec.Types("class"))
}

func TestOpenSessionRules(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.OpenSession(ctx, f.class.ClassID, ani, dto.OpenSessionRequest{})
	assert.True(t, helper.IsKind(err, helper.KindForbidden))

	_, err = f.svc.OpenSession(ctx, 404, teacher, dto.OpenSessionRequest{})
	assert.True(t, helper.IsKind(err, helper.KindNotFound))

	_, err = f.svc.OpenSession(ctx, f.class.ClassID, teacher, dto.OpenSessionRequest{SessionDate: "kemarin"})
	assert.True(t, helper.IsKind(err, helper.KindValidation))

	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)
	_, err = f.svc.OpenSession(ctx, f.class.ClassID, teacher, dto.OpenSessionRequest{StartTime: &start, EndTime: &end})
	assert.True(t, helper.IsKind(err, helper.KindValidation))
}

func TestCloseAndActiveSession(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	none, err := f.svc.ActiveSession(ctx, f.class.ClassID)
	require.NoError(t, err)
	assert.Nil(t, none)

	sess, err := f.svc.OpenSession(ctx, f.class.ClassID, teacher, dto.OpenSessionRequest{})
	require.NoError(t, err)
	f.rec.Reset()

	closed, err := f.svc.CloseSession(ctx, f.class.ClassID, sess.ClassSessionID, teacher)
	require.NoError(t, err)
	assert.False(t, closed.ClassSessionIsActive)
	assert.Equal(t, []string{hub.TypeSessionEnded}, f.rec.Types("class"))

	// already closed: no second event
	_, err = f.svc.CloseSession(ctx, f.class.ClassID, sess.ClassSessionID, teacher)
	require.NoError(t, err)
	assert.Len(t, f.rec.Types("class"), 1)

	_, err = f.svc.CloseSession(ctx, f.class.ClassID, 9999, teacher)
	assert.True(t, helper.IsKind(err, helper.KindNotFound))
}

func TestUpdateSessionReactivates(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	a, err := f.svc.OpenSession(ctx, f.class.ClassID, teacher, dto.OpenSessionRequest{})
	require.NoError(t, err)
	_, err = f.svc.OpenSession(ctx, f.class.ClassID, teacher, dto.OpenSessionRequest{})
	require.NoError(t, err)

	topic := "Goroutine"
	up, err := f.svc.UpdateSession(ctx, f.class.ClassID, a.ClassSessionID, teacher, dto.UpdateSessionRequest{
		LessonTopic: dto.Set(topic),
		IsActive:    dto.Set(true),
	})
	require.NoError(t, err)
	assert.True(t, up.ClassSessionIsActive)
	require.NotNil(t, up.ClassSessionLessonTopic)
	assert.Equal(t, topic, *up.ClassSessionLessonTopic)

	cur, err := f.svc.ActiveSession(ctx, f.class.ClassID)
	require.NoError(t, err)
	assert.Equal(t, a.ClassSessionID, cur.ClassSessionID)

	_, err = f.svc.UpdateSession(ctx, f.class.ClassID, a.ClassSessionID, teacher, dto.UpdateSessionRequest{})
	assert.True(t, helper.IsKind(err, helper.KindValidation))
}

func TestListSessions(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := f.svc.OpenSession(ctx, f.class.ClassID, teacher, dto.OpenSessionRequest{})
		require.NoError(t, err)
	}

	list, total, err := f.svc.ListSessions(ctx, f.class.ClassID, ani, helper.NewPaging(1, 2, 20, 100))
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, list, 2)

	_, _, err = f.svc.ListSessions(ctx, f.class.ClassID, outside, helper.NewPaging(1, 2, 20, 100))
	assert.True(t, helper.IsKind(err, helper.KindForbidden))
}

func TestAutoCloseExpired(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	start := now.Add(-2 * time.Hour)
	past := now.Add(-time.Hour)
	_, err := f.svc.OpenSession(ctx, f.class.ClassID, teacher, dto.OpenSessionRequest{StartTime: &start, EndTime: &past})
	require.NoError(t, err)
	f.rec.Reset()

	n, err := f.svc.AutoCloseExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{hub.TypeSessionEnded}, f.rec.Types("class"))

	n, err = f.svc.AutoCloseExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// open-ended sessions stay active
	_, err = f.svc.OpenSession(ctx, f.class.ClassID, teacher, dto.OpenSessionRequest{})
	require.NoError(t, err)
	n, err = f.svc.AutoCloseExpired(ctx, now.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

/* ---------- marking ---------- */

func TestMarkBulkReplacesDay(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	req := dto.MarkAttendanceRequest{Date: "2026-03-02", Entries: []dto.AttendanceEntry{
		entry(ani.UserID, model.StatusPresent),
		entry(budi.UserID, model.StatusAbsent),
	}}
	_, err := f.svc.MarkBulk(ctx, f.class.ClassID, teacher, req)
	require.NoError(t, err)

	req.Entries = []dto.AttendanceEntry{
		entry(ani.UserID, model.StatusLate),
		entry(budi.UserID, model.StatusExcused),
	}
	_, err = f.svc.MarkBulk(ctx, f.class.ClassID, teacher, req)
	require.NoError(t, err)

	rows := rowsFor(t, f.db, f.class.ClassID)
	require.Len(t, rows, 2)
	assert.Equal(t, model.StatusLate, rows[0].AttendanceStatus)
	assert.Equal(t, model.StatusExcused, rows[1].AttendanceStatus)
	require.NotNil(t, rows[0].AttendanceMarkedBy)
	assert.Equal(t, teacher.UserID, *rows[0].AttendanceMarkedBy)

	assert.Len(t, f.rec.Types("class"), 4)
	for _, typ := range f.rec.Types("class") {
		assert.Equal(t, hub.TypeAttendanceUpdate, typ)
	}
}

func TestMarkBulkValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	dup := dto.MarkAttendanceRequest{Entries: []dto.AttendanceEntry{
		entry(ani.UserID, model.StatusPresent),
		entry(ani.UserID, model.StatusLate),
	}}
	_, err := f.svc.MarkBulk(ctx, f.class.ClassID, teacher, dup)
	assert.True(t, helper.IsKind(err, helper.KindValidation))

	bad := dto.MarkAttendanceRequest{Entries: []dto.AttendanceEntry{entry(ani.UserID, "bolos")}}
	_, err = f.svc.MarkBulk(ctx, f.class.ClassID, teacher, bad)
	assert.True(t, helper.IsKind(err, helper.KindValidation))

	empty := dto.MarkAttendanceRequest{}
	_, err = f.svc.MarkBulk(ctx, f.class.ClassID, teacher, empty)
	assert.True(t, helper.IsKind(err, helper.KindValidation))

	ok := dto.MarkAttendanceRequest{Entries: []dto.AttendanceEntry{entry(ani.UserID, model.StatusPresent)}}
	_, err = f.svc.MarkBulk(ctx, f.class.ClassID, ani, ok)
	assert.True(t, helper.IsKind(err, helper.KindForbidden))

	assert.Empty(t, rowsFor(t, f.db, f.class.ClassID))
	assert.Empty(t, f.rec.Calls())
}

func TestMarkSelf(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	one := func(id uint, st model.Status) dto.MarkAttendanceRequest {
		return dto.MarkAttendanceRequest{Entries: []dto.AttendanceEntry{entry(id, st)}}
	}

	row, err := f.svc.MarkSelf(ctx, f.class.ClassID, ani, one(ani.UserID, model.StatusLate))
	require.NoError(t, err)
	assert.Equal(t, dbtime.Today(), row.AttendanceDate.UTC())

	_, err = f.svc.MarkSelf(ctx, f.class.ClassID, ani, one(ani.UserID, model.StatusPresent))
	require.NoError(t, err)

	rows := rowsFor(t, f.db, f.class.ClassID)
	require.Len(t, rows, 1)
	assert.Equal(t, model.StatusPresent, rows[0].AttendanceStatus)
	assert.Equal(t, []string{hub.TypeSelfAttendanceMarked, hub.TypeSelfAttendanceMarked}, f.rec.Types("class"))

	_, err = f.svc.MarkSelf(ctx, f.class.ClassID, ani, one(budi.UserID, model.StatusPresent))
	assert.True(t, helper.IsKind(err, helper.KindValidation))

	two := dto.MarkAttendanceRequest{Entries: []dto.AttendanceEntry{
		entry(ani.UserID, model.StatusPresent), entry(budi.UserID, model.StatusPresent),
	}}
	_, err = f.svc.MarkSelf(ctx, f.class.ClassID, ani, two)
	assert.True(t, helper.IsKind(err, helper.KindValidation))

	_, err = f.svc.MarkSelf(ctx, f.class.ClassID, outside, one(outside.UserID, model.StatusPresent))
	assert.True(t, helper.IsKind(err, helper.KindForbidden))
}

func TestJoinClassUpsert(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.MarkBulk(ctx, f.class.ClassID, teacher, dto.MarkAttendanceRequest{
		Entries: []dto.AttendanceEntry{entry(ani.UserID, model.StatusAbsent), entry(budi.UserID, model.StatusLate)},
	})
	require.NoError(t, err)
	f.rec.Reset()

	device := "android"
	row, err := f.svc.JoinClass(ctx, f.class.ClassID, ani, dto.JoinClassRequest{DeviceInfo: &device})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPresent, row.AttendanceStatus)
	require.NotNil(t, row.AttendanceJoinTime)

	// late stays late
	row, err = f.svc.JoinClass(ctx, f.class.ClassID, budi, dto.JoinClassRequest{})
	require.NoError(t, err)
	assert.Equal(t, model.StatusLate, row.AttendanceStatus)

	rows := rowsFor(t, f.db, f.class.ClassID)
	require.Len(t, rows, 2)
	require.NotNil(t, rows[0].AttendanceDeviceInfo)
	assert.Equal(t, "android", *rows[0].AttendanceDeviceInfo)
	assert.Equal(t, []string{hub.TypeStudentJoined, hub.TypeStudentJoined}, f.rec.Types("class"))
}

func TestJoinClassRules(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	other := budi.UserID
	_, err := f.svc.JoinClass(ctx, f.class.ClassID, ani, dto.JoinClassRequest{StudentID: &other})
	assert.True(t, helper.IsKind(err, helper.KindForbidden))

	_, err = f.svc.JoinClass(ctx, f.class.ClassID, outside, dto.JoinClassRequest{})
	assert.True(t, helper.IsKind(err, helper.KindForbidden))

	// staff can join a registered student who has no row yet
	row, err := f.svc.JoinClass(ctx, f.class.ClassID, teacher, dto.JoinClassRequest{StudentID: &other})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPresent, row.AttendanceStatus)
	assert.Equal(t, other, row.AttendanceStudentID)
}

func TestUpdateAttendance(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	rows, err := f.svc.MarkBulk(ctx, f.class.ClassID, teacher, dto.MarkAttendanceRequest{
		Entries: []dto.AttendanceEntry{entry(ani.UserID, model.StatusAbsent)},
	})
	require.NoError(t, err)
	id := rows[0].AttendanceID

	up, err := f.svc.UpdateAttendance(ctx, f.class.ClassID, id, teacher, dto.UpdateAttendanceRequest{
		Status: dto.Set(model.StatusExcused),
		Notes:  dto.Set("sakit"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusExcused, up.AttendanceStatus)
	require.NotNil(t, up.AttendanceNotes)
	assert.Equal(t, "sakit", *up.AttendanceNotes)

	_, err = f.svc.UpdateAttendance(ctx, f.class.ClassID, id, teacher, dto.UpdateAttendanceRequest{Status: dto.Set(model.Status("x"))})
	assert.True(t, helper.IsKind(err, helper.KindValidation))

	_, err = f.svc.UpdateAttendance(ctx, f.class.ClassID, 777, teacher, dto.UpdateAttendanceRequest{Status: dto.Set(model.StatusLate)})
	assert.True(t, helper.IsKind(err, helper.KindNotFound))

	_, err = f.svc.UpdateAttendance(ctx, f.class.ClassID, id, ani, dto.UpdateAttendanceRequest{Status: dto.Set(model.StatusLate)})
	assert.True(t, helper.IsKind(err, helper.KindForbidden))
}

func TestHistoryScopesStudents(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	for _, d := range []string{"2026-03-02", "2026-03-09", "2026-03-16"} {
		_, err := f.svc.MarkBulk(ctx, f.class.ClassID, teacher, dto.MarkAttendanceRequest{Date: d,
			Entries: []dto.AttendanceEntry{entry(ani.UserID, model.StatusPresent), entry(budi.UserID, model.StatusAbsent)},
		})
		require.NoError(t, err)
	}
	page := helper.NewPaging(1, 50, 20, 100)

	all, total, err := f.svc.History(ctx, f.class.ClassID, teacher, dto.HistoryQuery{}, page)
	require.NoError(t, err)
	assert.Equal(t, int64(6), total)
	assert.Len(t, all, 6)
	assert.Equal(t, "2026-03-16", all[0].AttendanceDate.UTC().Format(dbtime.DateLayout))

	mine, total, err := f.svc.History(ctx, f.class.ClassID, ani, dto.HistoryQuery{StudentID: &budi.UserID}, page)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	for _, r := range mine {
		assert.Equal(t, ani.UserID, r.AttendanceStudentID)
	}

	ranged, total, err := f.svc.History(ctx, f.class.ClassID, teacher,
		dto.HistoryQuery{StartDate: "2026-03-09", EndDate: "2026-03-09", Status: "absent"}, page)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, budi.UserID, ranged[0].AttendanceStudentID)

	_, _, err = f.svc.History(ctx, f.class.ClassID, teacher, dto.HistoryQuery{StartDate: "2026-03-10", EndDate: "2026-03-01"}, page)
	assert.True(t, helper.IsKind(err, helper.KindValidation))

	_, _, err = f.svc.History(ctx, f.class.ClassID, outside, dto.HistoryQuery{}, page)
	assert.True(t, helper.IsKind(err, helper.KindForbidden))
}

/* ---------- stats ---------- */

func TestStatsEmptyIsZero(t *testing.T) {
	f := setup(t)
	st, err := f.svc.Stats(context.Background(), f.class.ClassID, teacher, dto.StatsQuery{})
	require.NoError(t, err)
	assert.Equal(t, dto.Stats{}, *st)
}

func TestStatsRate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.MarkBulk(ctx, f.class.ClassID, teacher, dto.MarkAttendanceRequest{Date: "2026-03-02",
		Entries: []dto.AttendanceEntry{entry(ani.UserID, model.StatusPresent), entry(budi.UserID, model.StatusAbsent)},
	})
	require.NoError(t, err)
	_, err = f.svc.MarkBulk(ctx, f.class.ClassID, teacher, dto.MarkAttendanceRequest{Date: "2026-03-09",
		Entries: []dto.AttendanceEntry{entry(ani.UserID, model.StatusLate)},
	})
	require.NoError(t, err)

	st, err := f.svc.Stats(ctx, f.class.ClassID, ani, dto.StatsQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), st.TotalStudents)
	assert.Equal(t, int64(1), st.Present)
	assert.Equal(t, int64(1), st.Absent)
	assert.Equal(t, int64(1), st.Late)
	assert.Equal(t, 66.67, st.AttendanceRate)

	st, err = f.svc.Stats(ctx, f.class.ClassID, teacher, dto.StatsQuery{StartDate: "2026-03-09"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.TotalStudents)
	assert.Equal(t, 100.0, st.AttendanceRate)
}

func TestBuildStatsRounding(t *testing.T) {
	st := buildStats([]statusCount{
		{Status: model.StatusPresent, Total: 1},
		{Status: model.StatusExcused, Total: 2},
	})
	assert.Equal(t, int64(3), st.TotalStudents)
	assert.Equal(t, 33.33, st.AttendanceRate)
}
