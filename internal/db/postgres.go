package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/XSAM/otelsql"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/adserve/core/internal/models"
)

// Postgres wraps a postgres DB connection. OffersTable is the active
// month-partitioned offers table name (spec.md §6); it is re-pointed by
// setting OFFERS_TABLE to the new table's full name and restarting, after the new table has
// been created with the same schema by an operator/migration.
type Postgres struct {
	DB          *sql.DB
	OffersTable string
}

const schemaSQL = `CREATE TABLE IF NOT EXISTS publishers (
    id SERIAL PRIMARY KEY,
    slug TEXT UNIQUE NOT NULL,
    name TEXT NOT NULL,
    domain TEXT NOT NULL,
    allowed_campaign_types TEXT[],
    daily_earning_cap DOUBLE PRECISION NOT NULL DEFAULT 0,
    record_views BOOLEAN NOT NULL DEFAULT FALSE,
    allow_multiple_placements BOOLEAN NOT NULL DEFAULT TRUE,
    ignore_mobile_traffic BOOLEAN NOT NULL DEFAULT FALSE,
    default_keywords TEXT[],
    sampled_ctr DOUBLE PRECISION NOT NULL DEFAULT 0,
    exclude_campaigns TEXT[],
    groups TEXT[],
    unauthed_ad_decisions BOOLEAN NOT NULL DEFAULT FALSE,
    disabled BOOLEAN NOT NULL DEFAULT FALSE,
    auth_token TEXT UNIQUE
);

CREATE TABLE IF NOT EXISTS advertisers (
    id SERIAL PRIMARY KEY,
    slug TEXT UNIQUE NOT NULL,
    name TEXT NOT NULL,
    active BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS campaigns (
    id SERIAL PRIMARY KEY,
    slug TEXT UNIQUE NOT NULL,
    name TEXT NOT NULL,
    advertiser_id INT REFERENCES advertisers(id),
    campaign_type TEXT NOT NULL,
    publisher_groups TEXT[]
);

CREATE TABLE IF NOT EXISTS flights (
    id SERIAL PRIMARY KEY,
    slug TEXT UNIQUE NOT NULL,
    campaign_id INT REFERENCES campaigns(id),
    live BOOLEAN NOT NULL DEFAULT FALSE,
    start_date DATE NOT NULL,
    end_date DATE NOT NULL,
    cpc DOUBLE PRECISION NOT NULL DEFAULT 0,
    cpm DOUBLE PRECISION NOT NULL DEFAULT 0,
    sold_clicks INT NOT NULL DEFAULT 0,
    sold_impressions INT NOT NULL DEFAULT 0,
    priority_multiplier INT NOT NULL DEFAULT 1,
    pacing_interval_seconds INT NOT NULL DEFAULT 86400,
    prioritize_by_ctr BOOLEAN NOT NULL DEFAULT FALSE,
    daily_cap DOUBLE PRECISION NOT NULL DEFAULT 0,
    targeting JSONB,
    total_views INT NOT NULL DEFAULT 0,
    total_clicks INT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS ad_types (
    id SERIAL PRIMARY KEY,
    slug TEXT UNIQUE NOT NULL,
    name TEXT NOT NULL,
    width_px INT,
    height_px INT,
    max_text_length INT,
    allowed_html_tags TEXT[],
    custom_template TEXT,
    deprecated BOOLEAN NOT NULL DEFAULT FALSE,
    publisher_id INT REFERENCES publishers(id)
);

CREATE TABLE IF NOT EXISTS advertisements (
    id SERIAL PRIMARY KEY,
    slug TEXT UNIQUE NOT NULL,
    flight_id INT REFERENCES flights(id),
    live BOOLEAN NOT NULL DEFAULT FALSE,
    link_url TEXT,
    image TEXT,
    text TEXT,
    headline TEXT,
    content TEXT,
    cta TEXT,
    html TEXT,
    ad_type_slugs TEXT[]
);

CREATE TABLE IF NOT EXISTS ad_impressions (
    publisher_id INT NOT NULL,
    advertisement_id INT NOT NULL DEFAULT 0,
    date DATE NOT NULL,
    decisions INT NOT NULL DEFAULT 0,
    offers INT NOT NULL DEFAULT 0,
    views INT NOT NULL DEFAULT 0,
    clicks INT NOT NULL DEFAULT 0,
    PRIMARY KEY (publisher_id, advertisement_id, date)
);

CREATE TABLE IF NOT EXISTS views (
    id SERIAL PRIMARY KEY,
    offer_id UUID NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS clicks (
    id SERIAL PRIMARY KEY,
    offer_id UUID NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_flights_campaign_id ON flights (campaign_id);
CREATE INDEX IF NOT EXISTS idx_flights_live_dates ON flights (live, start_date, end_date) WHERE live = true;
CREATE INDEX IF NOT EXISTS idx_advertisements_flight_id ON advertisements (flight_id);
CREATE INDEX IF NOT EXISTS idx_campaigns_advertiser_id ON campaigns (advertiser_id);
CREATE INDEX IF NOT EXISTS idx_ad_impressions_date ON ad_impressions (date);
`

// offersTableSQL is instantiated per table name so a new monthly
// partition can be created by changing OFFERS_TABLE (spec.md §6).
const offersTableSQL = `CREATE TABLE IF NOT EXISTS %s (
    id UUID PRIMARY KEY,
    advertisement_id INT,
    publisher_id INT NOT NULL,
    ad_type_slug TEXT,
    div_id TEXT,
    anonymized_ip TEXT,
    user_agent TEXT,
    browser TEXT,
    os TEXT,
    is_bot BOOLEAN NOT NULL DEFAULT FALSE,
    is_mobile BOOLEAN NOT NULL DEFAULT FALSE,
    country TEXT,
    keywords TEXT[],
    url TEXT,
    rotations INT NOT NULL DEFAULT 1,
    paid_eligible BOOLEAN NOT NULL DEFAULT FALSE,
    viewed BOOLEAN NOT NULL DEFAULT FALSE,
    clicked BOOLEAN NOT NULL DEFAULT FALSE,
    uplifted BOOLEAN NOT NULL DEFAULT FALSE,
    is_refunded BOOLEAN NOT NULL DEFAULT FALSE,
    view_time INT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_%s_publisher_created ON %s (publisher_id, created_at);
`

// InitPostgres connects to Postgres with connection pooling configuration
// and ensures the core schema plus the active offers partition exist.
func InitPostgres(dsn, offersTable string, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (*Postgres, error) {
	driverName, err := otelsql.Register("postgres",
		otelsql.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.connection_string", dsn),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("register otelsql: %w", err)
	}

	sqlDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	if err := sqlDB.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	p := &Postgres{DB: sqlDB, OffersTable: offersTable}
	if err := p.ensureSchema(); err != nil {
		return nil, err
	}
	zap.L().Info("Connected to Postgres with connection pooling",
		zap.Int("max_open_conns", maxOpenConns),
		zap.Int("max_idle_conns", maxIdleConns),
		zap.String("offers_table", offersTable))
	return p, nil
}

func (p *Postgres) ensureSchema() error {
	ctx := context.Background()
	if _, err := p.DB.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	stmt := fmt.Sprintf(offersTableSQL, pq.QuoteIdentifier(p.OffersTable), p.OffersTable, pq.QuoteIdentifier(p.OffersTable))
	if _, err := p.DB.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create offers table %s: %w", p.OffersTable, err)
	}
	return nil
}

// Close terminates the Postgres connection.
func (p *Postgres) Close() {
	if p != nil && p.DB != nil {
		if err := p.DB.Close(); err != nil {
			zap.L().Error("postgres close", zap.Error(err))
		}
	}
}

// InsertOffer persists a freshly decided Offer (C6).
func (p *Postgres) InsertOffer(o models.Offer) error {
	q := fmt.Sprintf(`INSERT INTO %s (
        id, advertisement_id, publisher_id, ad_type_slug, div_id, anonymized_ip,
        user_agent, browser, os, is_bot, is_mobile, country, keywords, url,
        rotations, paid_eligible, viewed, clicked, uplifted, is_refunded, view_time, created_at
    ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)`, pq.QuoteIdentifier(p.OffersTable))

	var adID interface{}
	if o.AdvertisementID != 0 {
		adID = o.AdvertisementID
	}
	_, err := p.DB.ExecContext(context.Background(), q,
		o.ID, adID, o.PublisherID, o.AdTypeSlug, o.DivID, o.AnonymizedIP,
		o.UserAgent, o.Browser, o.OS, o.IsBot, o.IsMobile, o.Country, pq.Array(o.Keywords), o.URL,
		o.Rotations, o.PaidEligible, o.Viewed, o.Clicked, o.Uplifted, o.IsRefunded, o.ViewTime, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert offer: %w", err)
	}
	return nil
}

// GetOffer loads an offer by its nonce/id.
func (p *Postgres) GetOffer(id string) (*models.Offer, error) {
	q := fmt.Sprintf(`SELECT id, advertisement_id, publisher_id, ad_type_slug, div_id, anonymized_ip,
        user_agent, browser, os, is_bot, is_mobile, country, keywords, url, rotations,
        paid_eligible, viewed, clicked, uplifted, is_refunded, view_time, created_at
        FROM %s WHERE id=$1`, pq.QuoteIdentifier(p.OffersTable))

	var o models.Offer
	var adID sql.NullInt64
	var viewTime sql.NullInt64
	row := p.DB.QueryRowContext(context.Background(), q, id)
	err := row.Scan(&o.ID, &adID, &o.PublisherID, &o.AdTypeSlug, &o.DivID, &o.AnonymizedIP,
		&o.UserAgent, &o.Browser, &o.OS, &o.IsBot, &o.IsMobile, &o.Country, pq.Array(&o.Keywords), &o.URL, &o.Rotations,
		&o.PaidEligible, &o.Viewed, &o.Clicked, &o.Uplifted, &o.IsRefunded, &viewTime, &o.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get offer: %w", err)
	}
	if adID.Valid {
		o.AdvertisementID = int(adID.Int64)
	}
	if viewTime.Valid {
		v := int(viewTime.Int64)
		o.ViewTime = &v
	}
	return &o, nil
}

// ListOffersByDate loads every offer created on the given day, used by
// the archive job (C8) to export one CSV per day.
func (p *Postgres) ListOffersByDate(day time.Time) ([]models.Offer, error) {
	start := day.Truncate(24 * time.Hour)
	end := start.Add(24 * time.Hour)

	q := fmt.Sprintf(`SELECT id, advertisement_id, publisher_id, ad_type_slug, div_id, anonymized_ip,
        user_agent, browser, os, is_bot, is_mobile, country, keywords, url, rotations,
        paid_eligible, viewed, clicked, uplifted, is_refunded, view_time, created_at
        FROM %s WHERE created_at >= $1 AND created_at < $2 ORDER BY created_at`, pq.QuoteIdentifier(p.OffersTable))

	rows, err := p.DB.QueryContext(context.Background(), q, start, end)
	if err != nil {
		return nil, fmt.Errorf("list offers by date: %w", err)
	}
	defer rows.Close()

	var out []models.Offer
	for rows.Next() {
		var o models.Offer
		var adID sql.NullInt64
		var viewTime sql.NullInt64
		if err := rows.Scan(&o.ID, &adID, &o.PublisherID, &o.AdTypeSlug, &o.DivID, &o.AnonymizedIP,
			&o.UserAgent, &o.Browser, &o.OS, &o.IsBot, &o.IsMobile, &o.Country, pq.Array(&o.Keywords), &o.URL, &o.Rotations,
			&o.PaidEligible, &o.Viewed, &o.Clicked, &o.Uplifted, &o.IsRefunded, &viewTime, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan offer: %w", err)
		}
		if adID.Valid {
			o.AdvertisementID = int(adID.Int64)
		}
		if viewTime.Valid {
			v := int(viewTime.Int64)
			o.ViewTime = &v
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// MarkOfferViewed flips viewed=true and then inserts a View row, as two
// separate statements outside any transaction, returning false (no error) if the offer was already
// viewed (idempotent — the nonce cache is the real dedup point, this is
// belt and suspenders for the durable record).
func (p *Postgres) MarkOfferViewed(offerID string, recordView bool) (bool, error) {
	q := fmt.Sprintf(`UPDATE %s SET viewed=true WHERE id=$1 AND viewed=false`, pq.QuoteIdentifier(p.OffersTable))
	res, err := p.DB.ExecContext(context.Background(), q, offerID)
	if err != nil {
		return false, fmt.Errorf("mark offer viewed: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return false, nil
	}
	if recordView {
		if _, err := p.DB.ExecContext(context.Background(),
			`INSERT INTO views (offer_id) VALUES ($1)`, offerID); err != nil {
			return true, fmt.Errorf("insert view: %w", err)
		}
	}
	return true, nil
}

// MarkOfferUplifted flips uplifted=true, returning false (no error) if
// the offer was already marked (idempotent, same shape as
// MarkOfferViewed/MarkOfferClicked).
func (p *Postgres) MarkOfferUplifted(offerID string) (bool, error) {
	q := fmt.Sprintf(`UPDATE %s SET uplifted=true WHERE id=$1 AND uplifted=false`, pq.QuoteIdentifier(p.OffersTable))
	res, err := p.DB.ExecContext(context.Background(), q, offerID)
	if err != nil {
		return false, fmt.Errorf("mark offer uplifted: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// MarkOfferClicked flips clicked=true and inserts a Click row.
func (p *Postgres) MarkOfferClicked(offerID string) (bool, error) {
	q := fmt.Sprintf(`UPDATE %s SET clicked=true WHERE id=$1 AND clicked=false`, pq.QuoteIdentifier(p.OffersTable))
	res, err := p.DB.ExecContext(context.Background(), q, offerID)
	if err != nil {
		return false, fmt.Errorf("mark offer clicked: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return false, nil
	}
	if _, err := p.DB.ExecContext(context.Background(),
		`INSERT INTO clicks (offer_id) VALUES ($1)`, offerID); err != nil {
		return true, fmt.Errorf("insert click: %w", err)
	}
	return true, nil
}

// SetOfferViewTime updates an offer's view_time; the caller rejects
// out-of-range values before calling it.
func (p *Postgres) SetOfferViewTime(offerID string, seconds int) error {
	q := fmt.Sprintf(`UPDATE %s SET view_time=$1 WHERE id=$2`, pq.QuoteIdentifier(p.OffersTable))
	_, err := p.DB.ExecContext(context.Background(), q, seconds, offerID)
	return err
}

// RefundOffer flips is_refunded=true, returning false with no error if
// already refunded (idempotent refund, spec.md §4.8/§8 property 8).
func (p *Postgres) RefundOffer(offerID string) (bool, error) {
	q := fmt.Sprintf(`UPDATE %s SET is_refunded=true WHERE id=$1 AND is_refunded=false`, pq.QuoteIdentifier(p.OffersTable))
	res, err := p.DB.ExecContext(context.Background(), q, offerID)
	if err != nil {
		return false, fmt.Errorf("refund offer: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// UpsertAdImpression increments decisions/offers/views/clicks on the
// (publisher, advertisement, date) row using UPDATE…SET x=x+1 semantics
// so two concurrent billings both land (spec.md §5). advertisementID=0
// upserts the publisher's sentinel "no ad returned" row.
func (p *Postgres) UpsertAdImpression(publisherID, advertisementID int, date time.Time, decisions, offers, views, clicks int) error {
	day := date.Truncate(24 * time.Hour)
	_, err := p.DB.ExecContext(context.Background(), `
        INSERT INTO ad_impressions (publisher_id, advertisement_id, date, decisions, offers, views, clicks)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        ON CONFLICT (publisher_id, advertisement_id, date)
        DO UPDATE SET decisions = ad_impressions.decisions + $4,
                      offers = ad_impressions.offers + $5,
                      views = ad_impressions.views + $6,
                      clicks = ad_impressions.clicks + $7`,
		publisherID, advertisementID, day, decisions, offers, views, clicks)
	if err != nil {
		return fmt.Errorf("upsert ad impression: %w", err)
	}
	return nil
}

// DecrementAdImpression is used by refund: decrements views/clicks for
// the (publisher, advertisement, date) row.
func (p *Postgres) DecrementAdImpression(publisherID, advertisementID int, date time.Time, views, clicks int) error {
	day := date.Truncate(24 * time.Hour)
	_, err := p.DB.ExecContext(context.Background(), `
        UPDATE ad_impressions SET views = GREATEST(0, views - $4), clicks = GREATEST(0, clicks - $5)
        WHERE publisher_id=$1 AND advertisement_id=$2 AND date=$3`,
		publisherID, advertisementID, day, views, clicks)
	if err != nil {
		return fmt.Errorf("decrement ad impression: %w", err)
	}
	return nil
}

// SumFlightTotals sums views/clicks across a flight's advertisements from
// ad_impressions, used by the rollup worker (C8) to refresh denormalized
// flight totals.
func (p *Postgres) SumFlightTotals(advertisementIDs []int) (views, clicks int, err error) {
	if len(advertisementIDs) == 0 {
		return 0, 0, nil
	}
	row := p.DB.QueryRowContext(context.Background(),
		`SELECT COALESCE(SUM(views),0), COALESCE(SUM(clicks),0) FROM ad_impressions WHERE advertisement_id = ANY($1)`,
		pq.Array(advertisementIDs))
	if err := row.Scan(&views, &clicks); err != nil {
		return 0, 0, fmt.Errorf("sum flight totals: %w", err)
	}
	return views, clicks, nil
}

// LoadCatalog loads the full entity catalog for the in-memory store.
func (p *Postgres) LoadCatalog() (models.Catalog, error) {
	var c models.Catalog
	var err error
	if c.Publishers, err = p.loadPublishers(); err != nil {
		return c, err
	}
	if c.Advertisers, err = p.loadAdvertisers(); err != nil {
		return c, err
	}
	if c.Campaigns, err = p.loadCampaigns(); err != nil {
		return c, err
	}
	if c.Flights, err = p.loadFlights(); err != nil {
		return c, err
	}
	if c.Advertisements, err = p.loadAdvertisements(); err != nil {
		return c, err
	}
	if c.AdTypes, err = p.loadAdTypes(); err != nil {
		return c, err
	}
	return c, nil
}

func (p *Postgres) loadPublishers() ([]models.Publisher, error) {
	rows, err := p.DB.QueryContext(context.Background(), `SELECT id, slug, name, domain, allowed_campaign_types,
        daily_earning_cap, record_views, allow_multiple_placements, ignore_mobile_traffic, default_keywords,
        sampled_ctr, exclude_campaigns, groups, unauthed_ad_decisions, disabled, COALESCE(auth_token, '') FROM publishers`)
	if err != nil {
		return nil, fmt.Errorf("query publishers: %w", err)
	}
	defer rows.Close()
	var out []models.Publisher
	for rows.Next() {
		var pub models.Publisher
		if err := rows.Scan(&pub.ID, &pub.Slug, &pub.Name, &pub.Domain, pq.Array(&pub.AllowedCampaignTypes),
			&pub.DailyEarningCap, &pub.RecordViews, &pub.AllowMultiplePlacements, &pub.IgnoreMobileTraffic,
			pq.Array(&pub.DefaultKeywords), &pub.SampledCTR, pq.Array(&pub.ExcludeCampaigns), pq.Array(&pub.Groups),
			&pub.UnauthedAdDecisions, &pub.Disabled, &pub.AuthToken); err != nil {
			return nil, fmt.Errorf("scan publisher: %w", err)
		}
		out = append(out, pub)
	}
	return out, rows.Err()
}

func (p *Postgres) loadAdvertisers() ([]models.Advertiser, error) {
	rows, err := p.DB.QueryContext(context.Background(), `SELECT id, slug, name, active FROM advertisers`)
	if err != nil {
		return nil, fmt.Errorf("query advertisers: %w", err)
	}
	defer rows.Close()
	var out []models.Advertiser
	for rows.Next() {
		var a models.Advertiser
		if err := rows.Scan(&a.ID, &a.Slug, &a.Name, &a.Active); err != nil {
			return nil, fmt.Errorf("scan advertiser: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (p *Postgres) loadCampaigns() ([]models.Campaign, error) {
	rows, err := p.DB.QueryContext(context.Background(), `SELECT id, slug, name, advertiser_id, campaign_type, publisher_groups FROM campaigns`)
	if err != nil {
		return nil, fmt.Errorf("query campaigns: %w", err)
	}
	defer rows.Close()
	var out []models.Campaign
	for rows.Next() {
		var c models.Campaign
		if err := rows.Scan(&c.ID, &c.Slug, &c.Name, &c.AdvertiserID, &c.CampaignType, pq.Array(&c.PublisherGroups)); err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (p *Postgres) loadFlights() ([]models.Flight, error) {
	rows, err := p.DB.QueryContext(context.Background(), `SELECT id, slug, campaign_id, live, start_date, end_date,
        cpc, cpm, sold_clicks, sold_impressions, priority_multiplier, pacing_interval_seconds,
        prioritize_by_ctr, daily_cap, targeting, total_views, total_clicks FROM flights`)
	if err != nil {
		return nil, fmt.Errorf("query flights: %w", err)
	}
	defer rows.Close()
	var out []models.Flight
	for rows.Next() {
		var f models.Flight
		var targeting sql.NullString
		if err := rows.Scan(&f.ID, &f.Slug, &f.CampaignID, &f.Live, &f.StartDate, &f.EndDate,
			&f.CPC, &f.CPM, &f.SoldClicks, &f.SoldImpressions, &f.PriorityMultiplier, &f.PacingIntervalSeconds,
			&f.PrioritizeByCTR, &f.DailyCap, &targeting, &f.TotalViews, &f.TotalClicks); err != nil {
			return nil, fmt.Errorf("scan flight: %w", err)
		}
		if targeting.Valid && targeting.String != "" {
			if err := json.Unmarshal([]byte(targeting.String), &f.Targeting); err != nil {
				return nil, fmt.Errorf("parse flight targeting %d: %w", f.ID, err)
			}
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (p *Postgres) loadAdvertisements() ([]models.Advertisement, error) {
	rows, err := p.DB.QueryContext(context.Background(), `SELECT id, slug, flight_id, live, link_url, image,
        text, headline, content, cta, html, ad_type_slugs FROM advertisements`)
	if err != nil {
		return nil, fmt.Errorf("query advertisements: %w", err)
	}
	defer rows.Close()
	var out []models.Advertisement
	for rows.Next() {
		var a models.Advertisement
		if err := rows.Scan(&a.ID, &a.Slug, &a.FlightID, &a.Live, &a.LinkURL, &a.Image,
			&a.Text, &a.Headline, &a.Content, &a.CTA, &a.HTML, pq.Array(&a.AdTypeSlugs)); err != nil {
			return nil, fmt.Errorf("scan advertisement: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (p *Postgres) loadAdTypes() ([]models.AdType, error) {
	rows, err := p.DB.QueryContext(context.Background(), `SELECT id, slug, name, width_px, height_px,
        max_text_length, allowed_html_tags, custom_template, deprecated, COALESCE(publisher_id, 0) FROM ad_types`)
	if err != nil {
		return nil, fmt.Errorf("query ad_types: %w", err)
	}
	defer rows.Close()
	var out []models.AdType
	for rows.Next() {
		var t models.AdType
		if err := rows.Scan(&t.ID, &t.Slug, &t.Name, &t.WidthPx, &t.HeightPx,
			&t.MaxTextLength, pq.Array(&t.AllowedHTMLTags), &t.CustomTemplate, &t.Deprecated, &t.PublisherID); err != nil {
			return nil, fmt.Errorf("scan ad_type: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
