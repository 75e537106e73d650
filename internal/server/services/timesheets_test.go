package services

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/sitecrew/internal/common"
	"github.com/dmitrijs2005/sitecrew/internal/logging"
	"github.com/dmitrijs2005/sitecrew/internal/server/models"
)

type timesheetFixture struct {
	svc   *TimesheetService
	mock  sqlmock.Sqlmock
	ts    *fakeTimesheetsRepo
	im    *fakeImagesRepo
	store *fakeStore
	pub   *fakePublisher
}

var shiftStart = time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC)

func newTimesheetFixture(t *testing.T) *timesheetFixture {
	t.Helper()
	db, mock := newSQLMockDB(t)
	f := &timesheetFixture{
		mock:  mock,
		ts:    newFakeTimesheetsRepo(),
		im:    &fakeImagesRepo{},
		store: &fakeStore{},
		pub:   &fakePublisher{},
	}
	m := &fakeRepoManager{
		u: &fakeUsersRepo{byEmail: map[string]*models.User{"ann@example.com": {ID: "u1", Name: "Ann"}}},
		p: &fakeProjectsRepo{list: []*models.Project{{
			ID:         "p1",
			WorkOrders: []models.WorkOrder{{ID: "wo1", ProjectID: "p1"}},
		}}},
		ts: f.ts,
		im: f.im,
	}
	f.svc = NewTimesheetService(db, m, f.store, f.pub, logging.Discard())
	f.svc.now = func() time.Time { return shiftStart.Add(time.Hour) }
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet sqlmock expectations: %v", err)
		}
	})
	return f
}

func (f *timesheetFixture) expectTx(ok bool) {
	f.mock.ExpectBegin()
	if ok {
		f.mock.ExpectCommit()
	} else {
		f.mock.ExpectRollback()
	}
}

func ptr[T any](v T) *T { return &v }

func TestClockIn_OpensTimesheetWithLocation(t *testing.T) {
	f := newTimesheetFixture(t)
	f.expectTx(true)

	ts, err := f.svc.ClockIn(context.Background(), "u1", ClockInInput{
		ProjectID:   "p1",
		WorkOrderID: "wo1",
		Start:       shiftStart,
		Location:    &models.Location{Latitude: 56.9, Longitude: 24.1, CapturedAt: shiftStart},
	})
	require.NoError(t, err)
	assert.Equal(t, "ts-1", ts.ID)

	locs, _ := f.ts.ListLocations(context.Background(), ts.ID)
	assert.Len(t, locs, 1)
}

func TestClockIn_SecondOpenTimesheetConflicts(t *testing.T) {
	f := newTimesheetFixture(t)
	in := ClockInInput{ProjectID: "p1", WorkOrderID: "wo1", Start: shiftStart}

	f.expectTx(true)
	_, err := f.svc.ClockIn(context.Background(), "u1", in)
	require.NoError(t, err)

	f.expectTx(false)
	_, err = f.svc.ClockIn(context.Background(), "u1", in)
	assert.ErrorIs(t, err, ErrTimesheetOpen)
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestClockIn_OfflineReplayReturnsSameTimesheet(t *testing.T) {
	f := newTimesheetFixture(t)
	in := ClockInInput{ProjectID: "p1", WorkOrderID: "wo1", Start: shiftStart, OfflineID: "off-1",
		Location: &models.Location{Latitude: 1, Longitude: 2, CapturedAt: shiftStart}}

	f.expectTx(true)
	first, err := f.svc.ClockIn(context.Background(), "u1", in)
	require.NoError(t, err)

	f.expectTx(true)
	second, err := f.svc.ClockIn(context.Background(), "u1", in)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	locs, _ := f.ts.ListLocations(context.Background(), first.ID)
	assert.Len(t, locs, 1)
}

func TestClockIn_UnknownWorkOrder(t *testing.T) {
	f := newTimesheetFixture(t)

	_, err := f.svc.ClockIn(context.Background(), "u1", ClockInInput{ProjectID: "p1", WorkOrderID: "nope"})
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = f.svc.ClockIn(context.Background(), "u1", ClockInInput{})
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestClockOut_ClosesAndReplaysAsNoop(t *testing.T) {
	f := newTimesheetFixture(t)
	f.expectTx(true)
	open, err := f.svc.ClockIn(context.Background(), "u1", ClockInInput{ProjectID: "p1", WorkOrderID: "wo1", Start: shiftStart})
	require.NoError(t, err)

	end := shiftStart.Add(8 * time.Hour)
	in := ClockOutInput{
		TimesheetID: open.ID,
		End:         end,
		Notes:       "  poured slab  ",
		Locations:   []models.Location{{Latitude: 1, Longitude: 2, CapturedAt: end}},
	}

	f.expectTx(true)
	ts, err := f.svc.ClockOut(context.Background(), "u1", in)
	require.NoError(t, err)
	require.NotNil(t, ts.End)
	assert.Equal(t, "poured slab", ts.Notes)

	in.Notes = "different"
	in.End = end.Add(time.Hour)
	f.expectTx(true)
	again, err := f.svc.ClockOut(context.Background(), "u1", in)
	require.NoError(t, err)
	assert.Equal(t, end, *again.End)

	stored := f.ts.get(open.ID)
	assert.Equal(t, "poured slab", stored.Notes)
	locs, _ := f.ts.ListLocations(context.Background(), open.ID)
	assert.Len(t, locs, 1)
}

func TestClockOut_Validation(t *testing.T) {
	f := newTimesheetFixture(t)

	_, err := f.svc.ClockOut(context.Background(), "u1", ClockOutInput{TimesheetID: "x", Notes: "  "})
	assert.ErrorIs(t, err, common.ErrorValidation)

	f.expectTx(false)
	_, err = f.svc.ClockOut(context.Background(), "u1", ClockOutInput{TimesheetID: "missing", Notes: "n"})
	assert.ErrorIs(t, err, common.ErrorNotFound)

	f.expectTx(true)
	open, err := f.svc.ClockIn(context.Background(), "u1", ClockInInput{ProjectID: "p1", WorkOrderID: "wo1", Start: shiftStart})
	require.NoError(t, err)

	f.expectTx(false)
	_, err = f.svc.ClockOut(context.Background(), "u1", ClockOutInput{TimesheetID: open.ID, Notes: "n", End: shiftStart.Add(-time.Minute)})
	assert.ErrorIs(t, err, common.ErrorValidation)
	assert.True(t, f.ts.get(open.ID).Open())
}

func TestClockOut_OtherUsersTimesheetIsNotFound(t *testing.T) {
	f := newTimesheetFixture(t)
	f.expectTx(true)
	open, err := f.svc.ClockIn(context.Background(), "u1", ClockInInput{ProjectID: "p1", WorkOrderID: "wo1", Start: shiftStart})
	require.NoError(t, err)

	f.expectTx(false)
	_, err = f.svc.ClockOut(context.Background(), "u2", ClockOutInput{TimesheetID: open.ID, Notes: "n", End: shiftStart.Add(time.Hour)})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestClockOutOffline_UpsertsByOfflineID(t *testing.T) {
	f := newTimesheetFixture(t)
	end := shiftStart.Add(6 * time.Hour)
	in := ClockOutOfflineInput{
		OfflineID:    "off-9",
		ProjectID:    "p1",
		WorkOrderID:  "wo1",
		Start:        shiftStart,
		End:          end,
		Notes:        "framing",
		Locations:    []models.Location{{Latitude: 1, Longitude: 2, CapturedAt: shiftStart}, {Latitude: 1, Longitude: 2, CapturedAt: end}},
		FallDetected: true,
	}

	f.expectTx(true)
	first, err := f.svc.ClockOutOffline(context.Background(), "u1", in)
	require.NoError(t, err)

	f.expectTx(true)
	second, err := f.svc.ClockOutOffline(context.Background(), "u1", in)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	stored := f.ts.get(first.ID)
	assert.False(t, stored.Open())
	assert.True(t, stored.FallDetected)
	locs, _ := f.ts.ListLocations(context.Background(), first.ID)
	assert.Len(t, locs, 2)
	assert.Empty(t, f.pub.events)
}

func TestClockOutOffline_ClosesShiftOpenedOffline(t *testing.T) {
	f := newTimesheetFixture(t)
	f.expectTx(true)
	open, err := f.svc.ClockIn(context.Background(), "u1", ClockInInput{ProjectID: "p1", WorkOrderID: "wo1", Start: shiftStart, OfflineID: "off-2"})
	require.NoError(t, err)

	f.expectTx(true)
	closed, err := f.svc.ClockOutOffline(context.Background(), "u1", ClockOutOfflineInput{
		OfflineID: "off-2", ProjectID: "p1", WorkOrderID: "wo1", Start: shiftStart, End: shiftStart.Add(time.Hour), Notes: "n",
	})
	require.NoError(t, err)
	assert.Equal(t, open.ID, closed.ID)
	assert.False(t, f.ts.get(open.ID).Open())
}

func TestClockOutOffline_Validation(t *testing.T) {
	f := newTimesheetFixture(t)
	base := ClockOutOfflineInput{OfflineID: "o", ProjectID: "p1", WorkOrderID: "wo1", Start: shiftStart, End: shiftStart.Add(time.Hour), Notes: "n"}

	cases := map[string]func(in *ClockOutOfflineInput){
		"missing offline id": func(in *ClockOutOfflineInput) { in.OfflineID = "" },
		"missing notes":      func(in *ClockOutOfflineInput) { in.Notes = "" },
		"end before start":   func(in *ClockOutOfflineInput) { in.End = shiftStart.Add(-time.Hour) },
		"unknown work order": func(in *ClockOutOfflineInput) { in.WorkOrderID = "x" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := base
			mutate(&in)
			_, err := f.svc.ClockOutOffline(context.Background(), "u1", in)
			assert.ErrorIs(t, err, common.ErrorValidation)
		})
	}
}

func TestClockOutOffline_RepositoryErrorRollsBack(t *testing.T) {
	f := newTimesheetFixture(t)
	f.ts.failOn = "append"
	f.expectTx(false)

	_, err := f.svc.ClockOutOffline(context.Background(), "u1", ClockOutOfflineInput{
		OfflineID: "o", ProjectID: "p1", WorkOrderID: "wo1", Start: shiftStart, End: shiftStart.Add(time.Hour), Notes: "n",
	})
	assert.ErrorIs(t, err, errBoom{})
}

func TestCurrent(t *testing.T) {
	f := newTimesheetFixture(t)

	_, err := f.svc.Current(context.Background(), "u1")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	f.expectTx(true)
	_, err = f.svc.ClockIn(context.Background(), "u1", ClockInInput{ProjectID: "p1", WorkOrderID: "wo1", Start: shiftStart,
		Location: &models.Location{Latitude: 3, Longitude: 4, CapturedAt: shiftStart}})
	require.NoError(t, err)

	ts, err := f.svc.Current(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "ts-1", ts.ID)
	assert.Len(t, ts.Locations, 1)
}

func TestUpdate_AppendsLocationAndPublishesFall(t *testing.T) {
	f := newTimesheetFixture(t)
	f.expectTx(true)
	open, err := f.svc.ClockIn(context.Background(), "u1", ClockInInput{ProjectID: "p1", WorkOrderID: "wo1", Start: shiftStart})
	require.NoError(t, err)

	f.expectTx(true)
	at := shiftStart.Add(2 * time.Hour)
	ts, err := f.svc.Update(context.Background(), "u1", UpdateInput{
		TimesheetID: open.ID, Latitude: ptr(56.95), Longitude: ptr(24.1), Timestamp: at, IsEmergency: true, FallDetected: true,
	})
	require.NoError(t, err)
	require.NotNil(t, ts)

	assert.True(t, f.ts.get(open.ID).FallDetected)
	require.Len(t, f.pub.events, 1)
	e := f.pub.events[0]
	assert.Equal(t, "u1", e.UserID)
	assert.Equal(t, "Ann", e.UserName)
	assert.Equal(t, open.ID, e.TimesheetID)
	assert.Equal(t, at, e.DetectedAt)
	assert.Equal(t, 56.95, *e.Latitude)
}

func TestUpdate_FallOnUnsyncedShiftStillPublishes(t *testing.T) {
	f := newTimesheetFixture(t)

	ts, err := f.svc.Update(context.Background(), "u1", UpdateInput{OfflineID: "off-7", FallDetected: true})
	require.NoError(t, err)
	assert.Nil(t, ts)

	require.Len(t, f.pub.events, 1)
	assert.Equal(t, "off-7", f.pub.events[0].OfflineID)
	assert.Equal(t, shiftStart.Add(time.Hour), f.pub.events[0].DetectedAt)
	assert.Nil(t, f.pub.events[0].Latitude)
}

func TestUpdate_Errors(t *testing.T) {
	f := newTimesheetFixture(t)

	_, err := f.svc.Update(context.Background(), "u1", UpdateInput{TimesheetID: "x", Latitude: ptr(1.0)})
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = f.svc.Update(context.Background(), "u1", UpdateInput{TimesheetID: "x"})
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = f.svc.Update(context.Background(), "u1", UpdateInput{TimesheetID: "x", Latitude: ptr(1.0), Longitude: ptr(2.0)})
	assert.ErrorIs(t, err, common.ErrorNotFound)

	f.pub.err = errBoom{}
	_, err = f.svc.Update(context.Background(), "u1", UpdateInput{OfflineID: "o", FallDetected: true})
	assert.ErrorIs(t, err, errBoom{})
	assert.ErrorContains(t, err, "publish fall alert")
}

func upload(name, body string) Upload {
	return Upload{
		FileName:    name,
		ContentType: "image/jpeg",
		Size:        int64(len(body)),
		Open:        func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(body)), nil },
	}
}

func TestUploadImages_ByOfflineID(t *testing.T) {
	f := newTimesheetFixture(t)
	f.expectTx(true)
	open, err := f.svc.ClockIn(context.Background(), "u1", ClockInInput{ProjectID: "p1", WorkOrderID: "wo1", Start: shiftStart, OfflineID: "off-3"})
	require.NoError(t, err)

	imgs, err := f.svc.UploadImages(context.Background(), "u1", "off-3", models.ImageKindReceipt,
		[]Upload{upload("a.jpg", "aaa"), upload("b.jpg", "bb")})
	require.NoError(t, err)
	require.Len(t, imgs, 2)

	assert.Equal(t, open.ID, imgs[0].TimesheetID)
	assert.Equal(t, models.ImageKindReceipt, imgs[0].Kind)
	assert.EqualValues(t, 3, imgs[0].SizeBytes)
	require.Len(t, f.store.objects, 2)
	assert.True(t, strings.HasPrefix(f.store.objects[0].key, "timesheets/"+open.ID+"/"))
	assert.Equal(t, "aaa", f.store.objects[0].body)
	assert.Equal(t, imgs[1].StorageKey, f.store.objects[1].key)
}

func TestUploadImages_Errors(t *testing.T) {
	f := newTimesheetFixture(t)

	_, err := f.svc.UploadImages(context.Background(), "u1", "x", "video", []Upload{upload("a", "a")})
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = f.svc.UploadImages(context.Background(), "u1", "x", "", nil)
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = f.svc.UploadImages(context.Background(), "u1", "x", "", []Upload{upload("a", "a")})
	assert.ErrorIs(t, err, common.ErrorNotFound)

	f.expectTx(true)
	open, err := f.svc.ClockIn(context.Background(), "u1", ClockInInput{ProjectID: "p1", WorkOrderID: "wo1", Start: shiftStart})
	require.NoError(t, err)

	broken := Upload{FileName: "gone.jpg", Open: func() (io.ReadCloser, error) { return nil, errNoFile }}
	imgs, err := f.svc.UploadImages(context.Background(), "u1", open.ID, "", []Upload{upload("a", "a"), broken})
	assert.ErrorIs(t, err, errNoFile)
	assert.Len(t, imgs, 1)

	f.store.err = errBoom{}
	_, err = f.svc.UploadImages(context.Background(), "u1", open.ID, "", []Upload{upload("a", "a")})
	assert.ErrorIs(t, err, errBoom{})
}
