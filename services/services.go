// Package services implements the restaurant operations on top of gorm.
// Every exported operation authorizes its actor against the policy table,
// validates its input and returns one of the sentinel errors in errors.go.
package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"time"

	"restaurant-api/events"
	"restaurant-api/models"
	"restaurant-api/policy"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID uint
	Role   models.UserRole
}

type Options struct {
	StrictStock            bool
	ReservationDuration    time.Duration
	LaborHourlyRate        float64
	ReleaseTableOnComplete bool
}

func DefaultOptions() Options {
	return Options{
		ReservationDuration:    120 * time.Minute,
		LaborHourlyRate:        25,
		ReleaseTableOnComplete: true,
	}
}

type Services struct {
	Orders    *OrderService
	Inventory *InventoryService
	Recipes   *RecipeService
	Menu      *MenuService
	Tables    *TableService
	Shifts    *ShiftService
	Users     *UserService
	Analytics *AnalyticsService
}

type deps struct {
	db     *gorm.DB
	events events.Publisher
	log    *log.Entry
	opts   Options
}

func New(db *gorm.DB, pub events.Publisher, lg *log.Logger, opts Options) *Services {
	if pub == nil {
		pub = events.Nop{}
	}
	if lg == nil {
		lg = log.StandardLogger()
	}
	if opts.ReservationDuration <= 0 {
		opts.ReservationDuration = DefaultOptions().ReservationDuration
	}
	d := func(component string) deps {
		return deps{db: db, events: pub, log: lg.WithField("service", component), opts: opts}
	}
	return &Services{
		Orders:    &OrderService{d("orders")},
		Inventory: &InventoryService{d("inventory")},
		Recipes:   &RecipeService{d("recipes")},
		Menu:      &MenuService{d("menu")},
		Tables:    &TableService{d("tables")},
		Shifts:    &ShiftService{d("shifts")},
		Users:     &UserService{d("users")},
		Analytics: &AnalyticsService{d("analytics")},
	}
}

func (d deps) publish(ctx context.Context, topic, typ string, data any) {
	d.events.Publish(ctx, events.New(topic, typ, data))
}

func authorize(op policy.Operation, actor Actor) error {
	if !policy.Allowed(op, actor.Role) {
		return fmt.Errorf("%w: role %q may not perform %s", ErrUnauthorized, actor.Role, op)
	}
	return nil
}

var (
	validate = validator.New(validator.WithRequiredStructEnabled())
	slugRe   = regexp.MustCompile(`^[a-z0-9-]+$`)
)

func init() {
	_ = validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugRe.MatchString(fl.Field().String())
	})
}

func validateInput(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

// notFound turns gorm's missing-row error into ErrNotFound.
func notFound(err error, what string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %d", ErrNotFound, what, id)
	}
	return err
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
