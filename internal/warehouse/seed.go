package warehouse

import (
	"database/sql"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// demoCoin mirrors the column structure of the production analytics views
// so SQL generated against the mock schema also runs in production.
type demoCoin struct {
	rank      int
	symbol    string
	name      string
	priceUSD  float64
	mcapUSD   float64
	vol24hUSD float64
	chg24hPct float64
	chg7dPct  float64
}

var demoCoins = []demoCoin{
	{1, "BTC", "Bitcoin", 95432.10, 1_884_000_000_000, 42_100_000_000, 2.31, 8.42},
	{2, "ETH", "Ethereum", 3521.80, 423_000_000_000, 21_800_000_000, 1.87, 6.11},
	{3, "BNB", "BNB", 621.45, 90_200_000_000, 2_100_000_000, -0.43, 3.22},
	{4, "SOL", "Solana", 198.72, 93_100_000_000, 6_400_000_000, 4.52, 14.31},
	{5, "XRP", "XRP", 2.18, 124_000_000_000, 8_700_000_000, 0.91, 5.67},
	{6, "USDC", "USD Coin", 1.00, 45_800_000_000, 7_200_000_000, 0.00, 0.01},
	{7, "ADA", "Cardano", 0.92, 32_700_000_000, 1_200_000_000, -1.21, -2.44},
	{8, "AVAX", "Avalanche", 41.83, 17_200_000_000, 1_050_000_000, 3.11, 9.87},
	{9, "DOGE", "Dogecoin", 0.38, 55_900_000_000, 4_300_000_000, 1.44, 3.01},
	{10, "DOT", "Polkadot", 9.12, 12_600_000_000, 620_000_000, -0.87, 1.23},
}

// Seed creates (or recreates) the mock warehouse with realistic demo prices.
// The generator is seeded so repeated runs produce identical history.
func Seed(path string) error {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open mock database for seeding: %w", err)
	}
	defer db.Close()

	rng := rand.New(rand.NewSource(42))
	now := time.Now().UTC()
	today := now.Truncate(24 * time.Hour)

	if err := seedCurrentTop10(db, now); err != nil {
		return err
	}

	if err := seedDailyCoinPrices(db, rng, today); err != nil {
		return err
	}

	if err := seedPriceHistory7d(db, rng, today); err != nil {
		return err
	}

	if err := seedBTCDominanceTrend(db, rng, today); err != nil {
		return err
	}

	return nil
}

func seedCurrentTop10(db *sql.DB, now time.Time) error {
	ddl := `
	CREATE TABLE current_top_10 (
		rank           INTEGER,
		symbol         VARCHAR,
		name           VARCHAR,
		price_usd      DOUBLE,
		market_cap_usd DOUBLE,
		volume_24h_usd DOUBLE,
		change_24h_pct DOUBLE,
		change_7d_pct  DOUBLE,
		as_of          TIMESTAMP
	)`

	if err := recreate(db, "current_top_10", ddl); err != nil {
		return err
	}

	stmt, err := db.Prepare(`INSERT INTO current_top_10 VALUES (?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range demoCoins {
		_, err := stmt.Exec(c.rank, c.symbol, c.name, c.priceUSD, c.mcapUSD, c.vol24hUSD, c.chg24hPct, c.chg7dPct, now)
		if err != nil {
			return fmt.Errorf("failed to seed current_top_10: %w", err)
		}
	}

	return nil
}

func seedDailyCoinPrices(db *sql.DB, rng *rand.Rand, today time.Time) error {
	ddl := `
	CREATE TABLE daily_coin_prices (
		price_date           DATE,
		symbol               VARCHAR,
		name                 VARCHAR,
		rank_at_close        INTEGER,
		price_usd            DOUBLE,
		volume_24h_usd       DOUBLE,
		market_cap_usd       DOUBLE,
		market_cap_dominance DOUBLE,
		pct_change_24h       DOUBLE,
		pct_change_7d        DOUBLE,
		pct_change_30d       DOUBLE,
		circulating_supply   DOUBLE
	)`

	if err := recreate(db, "daily_coin_prices", ddl); err != nil {
		return err
	}

	stmt, err := db.Prepare(`INSERT INTO daily_coin_prices VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for daysAgo := 30; daysAgo > 0; daysAgo-- {
		day := today.AddDate(0, 0, -daysAgo)

		for _, c := range demoCoins {
			// Prices walk slightly each day, converging toward current.
			factor := 1 + uniform(rng, -0.04, 0.04)*(float64(daysAgo)/30)
			price := round2(c.priceUSD * factor)

			dominance := round2(uniform(rng, 0.5, 20))
			if c.symbol == "BTC" {
				dominance = round2(uniform(rng, 1, 55))
			}

			_, err := stmt.Exec(
				day, c.symbol, c.name, c.rank, price,
				float64(int64(c.vol24hUSD*uniform(rng, 0.7, 1.3))),
				float64(int64(c.mcapUSD*factor)),
				dominance,
				round2(uniform(rng, -5, 5)),
				round2(uniform(rng, -10, 10)),
				round2(uniform(rng, -20, 20)),
				float64(int64(c.mcapUSD/price)),
			)
			if err != nil {
				return fmt.Errorf("failed to seed daily_coin_prices: %w", err)
			}
		}
	}

	return nil
}

func seedPriceHistory7d(db *sql.DB, rng *rand.Rand, today time.Time) error {
	ddl := `
	CREATE TABLE price_history_7d (
		price_date     DATE,
		symbol         VARCHAR,
		name           VARCHAR,
		avg_price_usd  DOUBLE,
		high_price_usd DOUBLE,
		low_price_usd  DOUBLE,
		max_volume_usd DOUBLE,
		snapshot_count INTEGER
	)`

	if err := recreate(db, "price_history_7d", ddl); err != nil {
		return err
	}

	stmt, err := db.Prepare(`INSERT INTO price_history_7d VALUES (?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for daysAgo := 7; daysAgo > 0; daysAgo-- {
		day := today.AddDate(0, 0, -daysAgo)

		for _, c := range demoCoins {
			avg := round2(c.priceUSD * (1 + uniform(rng, -0.02, 0.02)))
			high := round2(avg * uniform(rng, 1.01, 1.05))
			low := round2(avg * uniform(rng, 0.95, 0.99))

			_, err := stmt.Exec(day, c.symbol, c.name, avg, high, low, c.vol24hUSD, 6+rng.Intn(19))
			if err != nil {
				return fmt.Errorf("failed to seed price_history_7d: %w", err)
			}
		}
	}

	return nil
}

func seedBTCDominanceTrend(db *sql.DB, rng *rand.Rand, today time.Time) error {
	ddl := `
	CREATE TABLE btc_dominance_trend (
		metric_date                 DATE,
		avg_btc_dominance_pct       DOUBLE,
		avg_eth_dominance_pct       DOUBLE,
		avg_total_mcap_trillion_usd DOUBLE,
		avg_24h_volume_billion_usd  DOUBLE,
		active_coins                INTEGER
	)`

	if err := recreate(db, "btc_dominance_trend", ddl); err != nil {
		return err
	}

	stmt, err := db.Prepare(`INSERT INTO btc_dominance_trend VALUES (?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for daysAgo := 30; daysAgo > 0; daysAgo-- {
		day := today.AddDate(0, 0, -daysAgo)

		_, err := stmt.Exec(
			day,
			round2(52.4+uniform(rng, -2, 2)),
			round2(16.8+uniform(rng, -1, 1)),
			round2(3.1+uniform(rng, -0.2, 0.2)),
			round2(180+uniform(rng, -20, 20)),
			8900+rng.Intn(201),
		)
		if err != nil {
			return fmt.Errorf("failed to seed btc_dominance_trend: %w", err)
		}
	}

	return nil
}

func recreate(db *sql.DB, table, ddl string) error {
	if _, err := db.Exec("DROP TABLE IF EXISTS " + table); err != nil {
		return fmt.Errorf("failed to drop %s: %w", table, err)
	}

	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("failed to create %s: %w", table, err)
	}

	return nil
}

func uniform(rng *rand.Rand, low, high float64) float64 {
	return low + rng.Float64()*(high-low)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
