package httpapi

import (
	"context"
	"errors"
	"io"
	"strconv"
	"time"

	"github.com/dmitrijs2005/sitecrew/internal/common"
	"github.com/dmitrijs2005/sitecrew/internal/server/models"
	"github.com/dmitrijs2005/sitecrew/internal/server/services"
)

var errBoom = errors.New("boom")

type fakeUsers struct {
	loginFn    func(email, password string) (*services.LoginResult, error)
	registered []services.RegisterInput
	registerFn func(in services.RegisterInput) (*models.User, error)
}

func (f *fakeUsers) Login(ctx context.Context, email, password string) (*services.LoginResult, error) {
	return f.loginFn(email, password)
}

func (f *fakeUsers) Register(ctx context.Context, in services.RegisterInput) (*models.User, error) {
	f.registered = append(f.registered, in)
	if f.registerFn != nil {
		return f.registerFn(in)
	}
	return &models.User{ID: "u9", Email: in.Email, Name: in.Name, Role: in.Role}, nil
}

type fakeProjects struct {
	list   []*models.Project
	err    error
	caller string
}

func (f *fakeProjects) List(ctx context.Context, userID string) ([]*models.Project, error) {
	f.caller = userID
	return f.list, f.err
}

type uploaded struct {
	ref, kind string
	names     []string
	bodies    []string
}

type fakeTimesheets struct {
	clockIn    []services.ClockInInput
	clockOut   []services.ClockOutInput
	offline    []services.ClockOutOfflineInput
	updates    []services.UpdateInput
	uploads    []uploaded
	current    *models.Timesheet
	updateNil  bool
	err        error
	lastCaller string
}

func (f *fakeTimesheets) ClockIn(ctx context.Context, userID string, in services.ClockInInput) (*models.Timesheet, error) {
	f.lastCaller = userID
	f.clockIn = append(f.clockIn, in)
	if f.err != nil {
		return nil, f.err
	}
	return &models.Timesheet{ID: "ts-1"}, nil
}

func (f *fakeTimesheets) ClockOut(ctx context.Context, userID string, in services.ClockOutInput) (*models.Timesheet, error) {
	f.clockOut = append(f.clockOut, in)
	if f.err != nil {
		return nil, f.err
	}
	return &models.Timesheet{ID: in.TimesheetID}, nil
}

func (f *fakeTimesheets) ClockOutOffline(ctx context.Context, userID string, in services.ClockOutOfflineInput) (*models.Timesheet, error) {
	f.offline = append(f.offline, in)
	if f.err != nil {
		return nil, f.err
	}
	return &models.Timesheet{ID: "ts-7", OfflineID: &in.OfflineID}, nil
}

func (f *fakeTimesheets) Current(ctx context.Context, userID string) (*models.Timesheet, error) {
	if f.current == nil {
		return nil, common.ErrorNotFound
	}
	return f.current, nil
}

func (f *fakeTimesheets) Update(ctx context.Context, userID string, in services.UpdateInput) (*models.Timesheet, error) {
	f.updates = append(f.updates, in)
	if f.err != nil {
		return nil, f.err
	}
	if f.updateNil {
		return nil, nil
	}
	return &models.Timesheet{ID: "ts-1"}, nil
}

func (f *fakeTimesheets) UploadImages(ctx context.Context, userID, ref, kind string, files []services.Upload) ([]*models.Image, error) {
	if f.err != nil {
		return nil, f.err
	}
	u := uploaded{ref: ref, kind: kind}
	var imgs []*models.Image
	for i, file := range files {
		rc, err := file.Open()
		if err != nil {
			return imgs, err
		}
		b, _ := io.ReadAll(rc)
		rc.Close()
		u.names = append(u.names, file.FileName)
		u.bodies = append(u.bodies, string(b))
		imgs = append(imgs, &models.Image{
			ID: "img-" + strconv.Itoa(i), TimesheetID: "ts-1", Kind: kind,
			StorageKey: "timesheets/ts-1/" + file.FileName, FileName: file.FileName, SizeBytes: file.Size,
			CreatedAt: time.Now(),
		})
	}
	f.uploads = append(f.uploads, u)
	return imgs, nil
}

type fakePinger struct{ err error }

func (f fakePinger) PingContext(ctx context.Context) error { return f.err }
