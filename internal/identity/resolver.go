package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/plumbline-ai/sarah-booking/internal/servicetitan"
	"github.com/plumbline-ai/sarah-booking/pkg/logging"
)

// Platform is the slice of the field-service API the resolver needs.
type Platform interface {
	SearchCustomers(ctx context.Context, phone string) ([]servicetitan.Customer, error)
	CreateCustomer(ctx context.Context, nc servicetitan.NewCustomer) (*servicetitan.Customer, error)
	GetLocations(ctx context.Context, customerID int64) ([]servicetitan.Location, error)
	CreateLocation(ctx context.Context, nl servicetitan.NewLocation) (*servicetitan.Location, error)
}

// Request carries the caller-supplied identity fields. Phone must already be
// normalized to 10 digits.
type Request struct {
	Phone  string
	Name   string
	Street string
	Unit   string
	City   string
	State  string
	Zip    string
}

// Resolution is a resolved customer+location pair, with flags recording what
// was created during resolution.
type Resolution struct {
	Customer        servicetitan.Customer
	Location        servicetitan.Location
	CreatedCustomer bool
	CreatedLocation bool
}

// Resolver finds or creates customer and location records by phone number.
type Resolver struct {
	platform     Platform
	cache        *Cache
	defaultState string
	strictMatch  bool
	logger       *logging.Logger
}

// Config configures a Resolver.
type Config struct {
	DefaultState string
	// StrictMatch verifies the looked-up phone against each candidate's
	// contact list instead of trusting the search endpoint's first result.
	StrictMatch bool
}

// NewResolver creates an identity resolver. cache may be nil to disable
// lookup caching.
func NewResolver(platform Platform, cache *Cache, cfg Config, logger *logging.Logger) *Resolver {
	state := cfg.DefaultState
	if state == "" {
		state = "OH"
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Resolver{
		platform:     platform,
		cache:        cache,
		defaultState: state,
		strictMatch:  cfg.StrictMatch,
		logger:       logger,
	}
}

// LookupByPhone returns the canonical customer for a normalized phone number,
// or nil when none exists. Cache errors degrade to a platform lookup.
func (r *Resolver) LookupByPhone(ctx context.Context, phone string) (*servicetitan.Customer, error) {
	if r.cache != nil {
		cached, err := r.cache.Get(ctx, phone)
		if err != nil {
			r.logger.Debug("customer cache read failed", "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	candidates, err := r.platform.SearchCustomers(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("identity: customer lookup: %w", err)
	}

	customer := r.pick(phone, candidates)
	if customer == nil {
		return nil, nil
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, phone, customer); err != nil {
			r.logger.Debug("customer cache write failed", "error", err)
		}
	}
	return customer, nil
}

// pick chooses the canonical customer among search candidates. The default
// contract accepts the first entry; strict mode requires an exact contact
// match and silently discards the rest.
func (r *Resolver) pick(phone string, candidates []servicetitan.Customer) *servicetitan.Customer {
	if len(candidates) == 0 {
		return nil
	}
	if !r.strictMatch {
		return &candidates[0]
	}
	for i := range candidates {
		for _, contact := range candidates[i].Contacts {
			digits, err := NormalizePhone(contact.Value)
			if err == nil && digits == phone {
				return &candidates[i]
			}
		}
	}
	return nil
}

// Resolve maps the request to a customer+location pair, creating records as
// needed. A brand-new customer is created with exactly one location cloned
// from the same address. An existing customer booking a different address
// gets an additional location; the address of record is never overwritten.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Resolution, error) {
	customer, err := r.LookupByPhone(ctx, req.Phone)
	if err != nil {
		return nil, err
	}

	if customer == nil {
		return r.createCustomer(ctx, req)
	}

	location, created, err := r.resolveLocation(ctx, customer, req)
	if err != nil {
		return nil, err
	}
	return &Resolution{
		Customer:        *customer,
		Location:        *location,
		CreatedLocation: created,
	}, nil
}

func (r *Resolver) createCustomer(ctx context.Context, req Request) (*Resolution, error) {
	addr := r.address(req)
	contact := servicetitan.Contact{Type: "MobilePhone", Value: req.Phone}

	created, err := r.platform.CreateCustomer(ctx, servicetitan.NewCustomer{
		Name:     req.Name,
		Type:     "Residential",
		Address:  addr,
		Contacts: []servicetitan.Contact{contact},
		Locations: []servicetitan.NewLocation{{
			Name:     req.Name,
			Address:  addr,
			Contacts: []servicetitan.Contact{contact},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("identity: customer create: %w", err)
	}

	var location servicetitan.Location
	if len(created.Locations) > 0 {
		location = created.Locations[0]
	} else {
		// Some tenants omit the echoed locations on create.
		locations, err := r.platform.GetLocations(ctx, created.ID)
		if err != nil {
			return nil, fmt.Errorf("identity: location lookup after create: %w", err)
		}
		if len(locations) == 0 {
			return nil, fmt.Errorf("identity: customer %d created with no location", created.ID)
		}
		location = locations[0]
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, req.Phone, created); err != nil {
			r.logger.Debug("customer cache write failed", "error", err)
		}
	}

	r.logger.Info("created customer", "customer_id", created.ID, "location_id", location.ID)
	return &Resolution{
		Customer:        *created,
		Location:        location,
		CreatedCustomer: true,
		CreatedLocation: true,
	}, nil
}

func (r *Resolver) resolveLocation(ctx context.Context, customer *servicetitan.Customer, req Request) (*servicetitan.Location, bool, error) {
	newAddress := req.Street != "" && !sameAddress(customer.Address, req)

	if !newAddress {
		locations, err := r.platform.GetLocations(ctx, customer.ID)
		if err != nil {
			return nil, false, fmt.Errorf("identity: location lookup: %w", err)
		}
		if len(locations) > 0 {
			return &locations[0], false, nil
		}
		if req.Street == "" {
			return nil, false, fmt.Errorf("identity: customer %d has no location and no address was supplied", customer.ID)
		}
	}

	created, err := r.platform.CreateLocation(ctx, servicetitan.NewLocation{
		CustomerID: customer.ID,
		Name:       customer.Name,
		Address:    r.address(req),
		Contacts:   []servicetitan.Contact{{Type: "MobilePhone", Value: req.Phone}},
	})
	if err != nil {
		return nil, false, fmt.Errorf("identity: location create: %w", err)
	}
	r.logger.Info("created location", "customer_id", customer.ID, "location_id", created.ID)
	return created, true, nil
}

func (r *Resolver) address(req Request) servicetitan.Address {
	state := req.State
	if state == "" {
		state = r.defaultState
	}
	return servicetitan.Address{
		Street:  req.Street,
		Unit:    req.Unit,
		City:    req.City,
		State:   state,
		Zip:     req.Zip,
		Country: "USA",
	}
}

// sameAddress compares the address of record with the caller-supplied one on
// street and zip, ignoring case and whitespace.
func sameAddress(onFile servicetitan.Address, req Request) bool {
	norm := func(s string) string {
		return strings.ToLower(strings.Join(strings.Fields(s), " "))
	}
	if norm(onFile.Street) != norm(req.Street) {
		return false
	}
	if req.Zip != "" && onFile.Zip != "" && norm(onFile.Zip) != norm(req.Zip) {
		return false
	}
	return true
}
