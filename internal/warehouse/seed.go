//-------------------------------------------------------------------------
//
// SalesMart Warehouse ETL
//
// Portions copyright (c) 2025 - 2026, SalesMart Project
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package warehouse

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salesmart/salesmart/internal/datagen"
	"github.com/salesmart/salesmart/internal/logging"
)

// Row counts per seed scale.
var seedScales = map[string]struct {
	Customers int
	Products  int
	Locations int
	Staged    int
}{
	"small":  {Customers: 200, Products: 100, Locations: 20, Staged: 2000},
	"medium": {Customers: 2000, Products: 500, Locations: 50, Staged: 50000},
	"large":  {Customers: 20000, Products: 2000, Locations: 100, Staged: 500000},
}

var segments = []string{"Consumer", "Corporate", "Home Office", "Small Business"}

var channels = []string{"organic", "paid_search", "referral", "email", "social"}

var paymentMethods = []string{"credit_card", "debit_card", "paypal", "wire", "gift_card"}

var regions = []string{"Northeast", "Southeast", "Midwest", "Southwest", "West"}

// Seeder generates sample dimension and staging data.
type Seeder struct {
	faker *datagen.Faker
}

// NewSeeder creates a new sample-data seeder.
func NewSeeder() *Seeder {
	return &Seeder{faker: datagen.NewFaker()}
}

// NewSeederWithSeed creates a seeder with a fixed random seed for
// reproducible sample data.
func NewSeederWithSeed(seed uint64) *Seeder {
	return &Seeder{faker: datagen.NewFakerWithSeed(seed)}
}

// Seed populates the dimensions, inventory snapshots, and the staging table
// with generated sample data at the given scale.
func (s *Seeder) Seed(ctx context.Context, pool *pgxpool.Pool, scale string) error {
	counts, ok := seedScales[scale]
	if !ok {
		return fmt.Errorf("unknown seed scale: %s", scale)
	}

	// Two calendar years ending today keeps the load window and trend
	// lookbacks inside the seeded date dimension.
	end := time.Now().UTC().Truncate(24 * time.Hour)
	start := end.AddDate(-2, 0, 0)

	logging.Info().
		Str("scale", scale).
		Int("customers", counts.Customers).
		Int("products", counts.Products).
		Int("locations", counts.Locations).
		Int("staged", counts.Staged).
		Msg("Seeding sample data")

	if err := s.seedDates(ctx, pool, start, end); err != nil {
		return fmt.Errorf("failed to seed date dimension: %w", err)
	}
	if err := s.seedCustomers(ctx, pool, counts.Customers, start); err != nil {
		return fmt.Errorf("failed to seed customer dimension: %w", err)
	}
	if err := s.seedProducts(ctx, pool, counts.Products); err != nil {
		return fmt.Errorf("failed to seed product dimension: %w", err)
	}
	if err := s.seedLocations(ctx, pool, counts.Locations); err != nil {
		return fmt.Errorf("failed to seed location dimension: %w", err)
	}
	if err := s.seedInventory(ctx, pool); err != nil {
		return fmt.Errorf("failed to seed inventory: %w", err)
	}
	if err := s.seedStaging(ctx, pool, counts, start, end); err != nil {
		return fmt.Errorf("failed to seed staging: %w", err)
	}

	logging.Info().Str("scale", scale).Msg("Sample data complete")
	return nil
}

func (s *Seeder) seedDates(ctx context.Context, pool *pgxpool.Pool, start, end time.Time) error {
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dow := int(d.Weekday())
		_, err := pool.Exec(ctx, `
            INSERT INTO dim_date (date_key, full_date, year, quarter, month, day,
                                  day_of_week, day_name, month_name, is_weekend)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
            ON CONFLICT (date_key) DO NOTHING
        `,
			DateKey(d), d, d.Year(), (int(d.Month())+2)/3, int(d.Month()), d.Day(),
			dow, d.Weekday().String(), d.Month().String(),
			dow == 0 || dow == 6)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedCustomers(ctx context.Context, pool *pgxpool.Pool, n int, start time.Time) error {
	for i := 1; i <= n; i++ {
		_, err := pool.Exec(ctx, `
            INSERT INTO dim_customer (customer_id, name, email, segment, address_line,
                                      city, state, zip, country, acquisition_channel,
                                      effective_date, is_current, version)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, TRUE, 1)
            ON CONFLICT DO NOTHING
        `,
			fmt.Sprintf("CUST%06d", i),
			s.faker.Name(),
			s.faker.Email(),
			datagen.Choose(s.faker, segments),
			s.faker.Street(),
			s.faker.City(),
			s.faker.State(),
			s.faker.Zip(),
			"USA",
			datagen.ChooseWeighted(s.faker, channels, []int{40, 25, 15, 12, 8}),
			start)
		if err != nil {
			return err
		}
		if i%1000 == 0 {
			logging.Debug().Int("customers", i).Msg("Seeding customers")
		}
	}
	return nil
}

func (s *Seeder) seedProducts(ctx context.Context, pool *pgxpool.Pool, n int) error {
	for i := 1; i <= n; i++ {
		cost := s.faker.Price(2.0, 400.0)
		_, err := pool.Exec(ctx, `
            INSERT INTO dim_product (product_id, name, category, brand, unit_cost, unit_price)
            VALUES ($1, $2, $3, $4, $5, $6)
            ON CONFLICT (product_id) DO NOTHING
        `,
			fmt.Sprintf("PROD%06d", i),
			s.faker.ProductName(),
			s.faker.ProductCategory(),
			s.faker.Company(),
			cost,
			cost*s.faker.Float64(1.2, 2.5))
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedLocations(ctx context.Context, pool *pgxpool.Pool, n int) error {
	for i := 1; i <= n; i++ {
		_, err := pool.Exec(ctx, `
            INSERT INTO dim_location (location_id, city, state, region, country)
            VALUES ($1, $2, $3, $4, $5)
            ON CONFLICT (location_id) DO NOTHING
        `,
			fmt.Sprintf("LOC%04d", i),
			s.faker.City(),
			s.faker.State(),
			datagen.Choose(s.faker, regions),
			"USA")
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedInventory(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
        INSERT INTO product_inventory (product_key, quantity_on_hand, quantity_reserved)
        SELECT product_key,
               (random() * 500)::int,
               (random() * 50)::int
        FROM dim_product
        ON CONFLICT (product_key) DO NOTHING
    `)
	return err
}

func (s *Seeder) seedStaging(ctx context.Context, pool *pgxpool.Pool, counts struct {
	Customers int
	Products  int
	Locations int
	Staged    int
}, start, end time.Time) error {
	for i := 1; i <= counts.Staged; i++ {
		qty := s.faker.Int(1, 10)
		price := s.faker.Price(5.0, 800.0)
		gross := float64(qty) * price
		discount := gross * s.faker.Float64(0, 0.15)
		tax := (gross - discount) * 0.08

		_, err := pool.Exec(ctx, `
            INSERT INTO stg_sales (transaction_id, order_date, customer_id, product_id,
                                   location_id, quantity, unit_price, discount_amount,
                                   tax_amount, total_amount, order_number, payment_method)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
            ON CONFLICT (transaction_id) DO NOTHING
        `,
			fmt.Sprintf("TXN%010d", i),
			s.faker.DateRange(start, end),
			fmt.Sprintf("CUST%06d", s.faker.Int(1, counts.Customers)),
			fmt.Sprintf("PROD%06d", s.faker.Int(1, counts.Products)),
			fmt.Sprintf("LOC%04d", s.faker.Int(1, counts.Locations)),
			qty,
			price,
			discount,
			tax,
			gross-discount+tax,
			fmt.Sprintf("ORD%s", s.faker.Digits(8)),
			datagen.ChooseWeighted(s.faker, paymentMethods, []int{45, 25, 15, 10, 5}))
		if err != nil {
			return err
		}
		if i%10000 == 0 {
			logging.Debug().Int("staged", i).Msg("Seeding staging rows")
		}
	}
	return nil
}
