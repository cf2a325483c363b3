package service

import (
	"context"
	"errors"
	"testing"

	"petfeeder/internal/models"
)

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

func TestScheduleService_Create(t *testing.T) {
	tests := []struct {
		name        string
		in          ScheduleInput
		wantTime    string
		wantPortion string
		wantRepeat  bool
		wantErr     error
	}{
		{name: "defaults", in: ScheduleInput{FeedingTime: "07:30"}, wantTime: "07:30", wantPortion: "medium", wantRepeat: true},
		{name: "single digit hour", in: ScheduleInput{FeedingTime: "7:05", PortionSize: "Small"}, wantTime: "07:05", wantPortion: "small", wantRepeat: true},
		{name: "repeat off", in: ScheduleInput{FeedingTime: "23:59", PortionSize: "large", RepeatDaily: boolPtr(false)}, wantTime: "23:59", wantPortion: "large"},
		{name: "hour out of range", in: ScheduleInput{FeedingTime: "24:00"}, wantErr: ErrInvalidSchedule},
		{name: "minutes out of range", in: ScheduleInput{FeedingTime: "12:60"}, wantErr: ErrInvalidSchedule},
		{name: "garbage", in: ScheduleInput{FeedingTime: "noon"}, wantErr: ErrInvalidSchedule},
		{name: "unknown portion", in: ScheduleInput{FeedingTime: "08:00", PortionSize: "huge"}, wantErr: ErrInvalidSchedule},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemScheduleRepo()
			svc := NewScheduleService(repo)

			got, err := svc.Create(context.Background(), 1, tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("want %v, got %v", tt.wantErr, err)
				}
				if len(repo.items) != 0 {
					t.Fatalf("invalid schedule must not be stored")
				}
				return
			}
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if got.FeedingTime != tt.wantTime || got.PortionSize != tt.wantPortion || got.RepeatDaily != tt.wantRepeat {
				t.Fatalf("unexpected schedule: %+v", got)
			}
			if !got.IsActive || got.UserID != 1 {
				t.Fatalf("new schedules are active and owned by the caller: %+v", got)
			}
		})
	}
}

func TestNormalizeFeedingTime(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "7:30", want: "07:30"},
		{in: " 07:05 ", want: "07:05"},
		{in: "0:00", want: "00:00"},
		{in: "23:59", want: "23:59"},
		{in: "24:00", wantErr: true},
		{in: "7:5", wantErr: true},
		{in: "07:30:00", wantErr: true},
		{in: "ab:cd", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := normalizeFeedingTime(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidSchedule) {
					t.Fatalf("want ErrInvalidSchedule, got %q, %v", got, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("normalizeFeedingTime(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("normalizeFeedingTime(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestScheduleService_UpdateOwnership(t *testing.T) {
	repo := newMemScheduleRepo(models.Schedule{ID: "s1", UserID: 1, FeedingTime: "07:30", PortionSize: "small", IsActive: true, RepeatDaily: true})
	svc := NewScheduleService(repo)
	ctx := context.Background()

	if _, err := svc.Update(ctx, 2, "s1", ScheduleUpdate{IsActive: boolPtr(false)}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
	if _, err := svc.Update(ctx, 1, "missing", ScheduleUpdate{}); !errors.Is(err, ErrScheduleNotFound) {
		t.Fatalf("want ErrScheduleNotFound, got %v", err)
	}
	if _, err := svc.Update(ctx, 1, "s1", ScheduleUpdate{FeedingTime: strPtr("25:00")}); !errors.Is(err, ErrInvalidSchedule) {
		t.Fatalf("want ErrInvalidSchedule, got %v", err)
	}

	got, err := svc.Update(ctx, 1, "s1", ScheduleUpdate{
		FeedingTime: strPtr("8:15"),
		PortionSize: strPtr("LARGE"),
		IsActive:    boolPtr(false),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.FeedingTime != "08:15" || got.PortionSize != "large" || got.IsActive || !got.RepeatDaily {
		t.Fatalf("unexpected update result: %+v", got)
	}
	if stored := repo.items["s1"]; stored.FeedingTime != "08:15" {
		t.Fatalf("update not persisted: %+v", stored)
	}
}

func TestScheduleService_ListAndDelete(t *testing.T) {
	repo := newMemScheduleRepo(
		models.Schedule{ID: "b", UserID: 1, FeedingTime: "18:00"},
		models.Schedule{ID: "a", UserID: 1, FeedingTime: "06:00"},
		models.Schedule{ID: "x", UserID: 2, FeedingTime: "12:00"},
	)
	svc := NewScheduleService(repo)
	ctx := context.Background()

	list, err := svc.List(ctx, 1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != "a" || list[1].ID != "b" {
		t.Fatalf("unexpected list: %+v", list)
	}

	if err := svc.Delete(ctx, 1, "x"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
	if err := svc.Delete(ctx, 1, "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, 1, "a"); !errors.Is(err, ErrScheduleNotFound) {
		t.Fatalf("want ErrScheduleNotFound, got %v", err)
	}
}

func TestScheduleService_RepoErrorPropagates(t *testing.T) {
	repo := newMemScheduleRepo()
	repo.getErr = errors.New("db down")
	svc := NewScheduleService(repo)

	if err := svc.Delete(context.Background(), 1, "s1"); err == nil || errors.Is(err, ErrScheduleNotFound) {
		t.Fatalf("expected raw repository error, got %v", err)
	}
}
