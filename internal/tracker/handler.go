package tracker

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/adserve/core/internal/db"
	"github.com/adserve/core/internal/geoip"
	"github.com/adserve/core/internal/logic"
	"github.com/adserve/core/internal/logic/ratelimit"
	"github.com/adserve/core/internal/models"
)

var pixelGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00,
	0x00, 0xff, 0xff, 0xff, 0x00, 0x00, 0x00, 0x21, 0xf9, 0x04, 0x01, 0x00,
	0x00, 0x00, 0x00, 0x2c, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00,
	0x00, 0x02, 0x02, 0x44, 0x01, 0x00, 0x3b,
}

// KnownUserFunc reports whether the requester is a recognized staff,
// publisher, or advertiser user and should never be billed, per spec.md
// §4.7 rule 2. The mechanism for recognizing such a user (session cookie,
// internal auth header) is operator-supplied.
type KnownUserFunc func(r *http.Request) bool

// Handler implements the view/click/view-time proxy endpoints.
type Handler struct {
	Store      models.AdDataStore
	Redis      *db.RedisStore
	Postgres   *db.Postgres
	GeoIP      *geoip.GeoIP
	Matcher    *logic.Matcher
	Blocklists *Blocklists
	ViewLimit  *ratelimit.KeyedLimiter
	ClickLimit *ratelimit.KeyedLimiter
	KnownUser  KnownUserFunc
	Logger     *zap.Logger

	// MaxViewTimeSeconds bounds the accepted view_time value.
	MaxViewTimeSeconds int
	// GlobalRecordViews gates View-row creation when the offer's publisher
	// is not in the store; a known publisher's own RecordViews decides.
	GlobalRecordViews bool
}

func (h *Handler) logger() *zap.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return zap.L()
}

func writePixel(w http.ResponseWriter, reason Reason) {
	w.Header().Set(ReasonHeader, string(reason))
	w.Header().Set("Content-Type", "image/gif")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pixelGIF)
}

// commonChecks runs the rules shared by view and click billing (spec.md
// §4.7 rules 1-5), in order, short-circuiting on the first non-billable
// verdict. The offer itself is loaded from Postgres by its nonce.
func (h *Handler) commonChecks(r *http.Request, advertisementID int, nonce, limiterKind string, limiter *ratelimit.KeyedLimiter, blockedReason Reason) (Reason, *models.Offer, bool) {
	exists, err := h.Redis.NonceExists(advertisementID, nonce, limiterKind)
	if err != nil {
		h.logger().Error("nonce exists check", zap.Error(err))
	}
	if !exists {
		return ReasonUnknownOffer, nil, false
	}

	offer, err := h.Postgres.GetOffer(nonce)
	if err != nil || offer == nil {
		return ReasonUnknownOffer, nil, false
	}

	ip := logic.ClientIP(r)
	ua := r.Header.Get("User-Agent")
	referrer := r.Header.Get("Referer")

	if IsInternalIP(ip) {
		return ReasonInternalIP, offer, false
	}
	if h.Blocklists.IsBlockedIP(ip) {
		return ReasonBlockedIP, offer, false
	}
	if h.Blocklists.IsBlockedUA(ua) {
		return ReasonBlockedUA, offer, false
	}
	if h.Blocklists.IsBlockedReferrer(referrer) {
		return ReasonBlockedReferrer, offer, false
	}
	if h.KnownUser != nil && h.KnownUser(r) {
		return ReasonKnownUser, offer, false
	}

	parsed := logic.ParseUA(ua)
	if parsed.IsRareUserAgent() {
		return ReasonUnrecognizedUA, offer, false
	}
	if parsed.IsBot {
		return ReasonBot, offer, false
	}

	if limiter != nil && !limiter.Allow(ratelimit.EventKey(ip, limiterKind)) {
		return blockedReason, offer, false
	}

	return "", offer, true
}

// ViewProxy handles GET /proxy/view/{advertisement_id}/{nonce}/.
func (h *Handler) ViewProxy(w http.ResponseWriter, r *http.Request, advertisementID int, nonce string) {
	reason, offer, ok := h.commonChecks(r, advertisementID, nonce, "view", h.ViewLimit, ReasonRatelimitedView)
	if !ok {
		writePixel(w, reason)
		return
	}

	if r.URL.Query().Get("uplift") == "1" {
		if _, err := h.Postgres.MarkOfferUplifted(nonce); err != nil {
			h.logger().Error("mark offer uplifted", zap.Error(err))
		}
	}

	claimed, err := h.Redis.ClaimNonce(advertisementID, nonce, "view")
	if err != nil {
		h.logger().Error("claim view nonce", zap.Error(err))
		writePixel(w, ReasonOldInvalidNonce)
		return
	}
	if !claimed {
		writePixel(w, ReasonOldInvalidNonce)
		return
	}

	pub := h.Store.GetPublisher(offer.PublisherID)
	recordView := h.GlobalRecordViews
	if pub != nil {
		recordView = pub.RecordViews
	}

	if _, err := h.Postgres.MarkOfferViewed(nonce, recordView); err != nil {
		h.logger().Error("mark offer viewed", zap.Error(err))
	}
	if err := h.Postgres.UpsertAdImpression(offer.PublisherID, advertisementID, time.Now().Truncate(24*time.Hour), 0, 0, 1, 0); err != nil {
		h.logger().Error("upsert ad impression (view)", zap.Error(err))
	}

	writePixel(w, ReasonBilledView)
}

// ClickProxy handles GET /proxy/click/{advertisement_id}/{nonce}/. The
// response is a 302 to the macro-expanded link regardless of billing
// outcome, per spec.md §4.7; when the advertisement is unknown or has no
// link, a 200 pixel carrying the reason is written instead.
func (h *Handler) ClickProxy(w http.ResponseWriter, r *http.Request, advertisementID int, nonce string) {
	reason, offer, ok := h.commonChecks(r, advertisementID, nonce, "click", h.ClickLimit, ReasonRatelimitedClick)

	ad := h.Store.GetAdvertisement(advertisementID)
	dest := ""
	if ad != nil {
		dest = expandClickMacros(ad.LinkURL, offer, r)
	}

	if !ok {
		h.redirect(w, r, dest, reason)
		return
	}
	if offer == nil || !offer.Viewed {
		h.redirect(w, r, dest, ReasonOldInvalidNonce)
		return
	}

	if !h.retargetMatches(r, offer) {
		h.redirect(w, r, dest, ReasonInvalidTargeting)
		return
	}

	claimed, err := h.Redis.ClaimNonce(advertisementID, nonce, "click")
	if err != nil {
		h.logger().Error("claim click nonce", zap.Error(err))
		h.redirect(w, r, dest, ReasonOldInvalidNonce)
		return
	}
	if !claimed {
		h.redirect(w, r, dest, ReasonOldInvalidNonce)
		return
	}

	if _, err := h.Postgres.MarkOfferClicked(nonce); err != nil {
		h.logger().Error("mark offer clicked", zap.Error(err))
	}
	if err := h.Postgres.UpsertAdImpression(offer.PublisherID, advertisementID, time.Now().Truncate(24*time.Hour), 0, 0, 0, 1); err != nil {
		h.logger().Error("upsert ad impression (click)", zap.Error(err))
	}

	h.redirect(w, r, dest, ReasonBilledClick)
}

// retargetMatches re-checks targeting at click time (spec.md §4.7):
// if the flight behind the offer's advertisement no longer matches the
// request's current geo, the click is not billed.
func (h *Handler) retargetMatches(r *http.Request, offer *models.Offer) bool {
	ad := h.Store.GetAdvertisement(offer.AdvertisementID)
	if ad == nil {
		return true
	}
	flight := h.Store.GetFlight(ad.FlightID)
	if flight == nil {
		return true
	}
	campaign := h.Store.GetCampaign(flight.CampaignID)
	pub := h.Store.GetPublisher(offer.PublisherID)
	if campaign == nil || pub == nil || h.Matcher == nil {
		return true
	}

	ip := logic.ClientIP(r)
	country, region, metro := logic.ResolveGeo(h.GeoIP, ip)
	ctx := logic.BuildTargetingContext(country, region, metro, logic.ParseUA(r.Header.Get("User-Agent")))
	ctx.PublisherSlug = pub.Slug
	ctx.URL = offer.URL
	ctx.Weekday = int(time.Now().UTC().Weekday())

	return h.Matcher.MatchesFlight(flight.Targeting, ctx, campaign.Slug, pub)
}

// expandClickMacros substitutes ${publisher}/${advertisement} into the
// link and appends ea-publisher, per spec.md §4.7/§6.
func expandClickMacros(link string, offer *models.Offer, r *http.Request) string {
	if link == "" {
		return ""
	}
	pubID, adID := 0, 0
	if offer != nil {
		pubID, adID = offer.PublisherID, offer.AdvertisementID
	}
	repl := strings.NewReplacer(
		"${publisher}", strconv.Itoa(pubID),
		"${advertisement}", strconv.Itoa(adID),
	)
	link = repl.Replace(link)

	sep := "?"
	if strings.Contains(link, "?") {
		sep = "&"
	}
	return link + sep + "ea-publisher=" + strconv.Itoa(pubID)
}

func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, dest string, reason Reason) {
	w.Header().Set(ReasonHeader, string(reason))
	if dest == "" {
		writePixel(w, reason)
		return
	}
	http.Redirect(w, r, dest, http.StatusFound)
}

// ViewTime handles GET /proxy/view-time/{advertisement_id}/{nonce}/?view_time=<int>.
func (h *Handler) ViewTime(w http.ResponseWriter, r *http.Request, advertisementID int, nonce string) {
	raw := r.URL.Query().Get("view_time")
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 || (h.MaxViewTimeSeconds > 0 && seconds > h.MaxViewTimeSeconds) {
		writePixel(w, ReasonInvalidViewTime)
		return
	}

	exists, err := h.Redis.NonceExists(advertisementID, nonce, "view")
	if err != nil || !exists {
		writePixel(w, ReasonUnknownOffer)
		return
	}

	if err := h.Postgres.SetOfferViewTime(nonce, seconds); err != nil {
		h.logger().Error("set offer view time", zap.Error(err))
		writePixel(w, ReasonInvalidViewTime)
		return
	}

	writePixel(w, ReasonUpdatedViewTime)
}
