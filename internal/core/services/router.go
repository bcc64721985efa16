package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/archivist-cli/internal/core/domain"
	"github.com/custodia-labs/archivist-cli/internal/core/ports/driven"
	"github.com/custodia-labs/archivist-cli/internal/logger"
)

// Placeholders used when no date can be parsed out of the analysis.
const (
	UnknownYear  = "未知年份"
	UnknownMonth = "未知月份"
)

// semanticDefaultFolder is where vendor-less documents land.
const semanticDefaultFolder = "General"

// placeholderVendors are values that mean "no vendor", case-insensitive.
var placeholderVendors = map[string]struct{}{
	"":        {},
	"unknown": {},
	"n/a":     {},
	"none":    {},
	"null":    {},
	"未知":      {},
	"无":       {},
}

// RouterConfig is the immutable routing policy, threaded through calls
// rather than held as package state.
type RouterConfig struct {
	// Labels maps categories to their localised directory names.
	Labels map[domain.Category]string

	// Templates overrides the per-category destination template.
	// Supported placeholders: {year}, {month}, {vendor}.
	Templates map[domain.Category]string

	// DatePartitioned lists the categories routed by date.
	DatePartitioned []domain.Category

	// MinPreferenceConfidence is the floor for the learned-preference tier.
	MinPreferenceConfidence float64
}

// DefaultRouterConfig mirrors the stock category map and routing rules.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		Labels: map[domain.Category]string{
			domain.CategoryInvoice:      "发票",
			domain.CategoryContract:     "合同",
			domain.CategoryPaper:        "论文",
			domain.CategoryImage:        "图片",
			domain.CategoryPresentation: "演示文稿",
			domain.CategoryDefault:      "其他",
		},
		Templates:               map[domain.Category]string{},
		DatePartitioned:         []domain.Category{domain.CategoryInvoice},
		MinPreferenceConfidence: 0.7,
	}
}

// Label returns the localised directory name for a category.
func (c RouterConfig) Label(cat domain.Category) string {
	if l, ok := c.Labels[cat]; ok {
		return l
	}
	return c.Labels[domain.CategoryDefault]
}

func (c RouterConfig) isDatePartitioned(cat domain.Category) bool {
	for _, dc := range c.DatePartitioned {
		if dc == cat {
			return true
		}
	}
	return false
}

// Router turns classifier output into a destination directory via the
// three-tier priority policy: learned preference, date partition,
// semantic fallback.
type Router struct {
	prefs driven.PreferenceStore
	cfg   RouterConfig
}

// NewRouter creates a routing engine. prefs may be nil, disabling the
// preference tier.
func NewRouter(prefs driven.PreferenceStore, cfg RouterConfig) *Router {
	return &Router{prefs: prefs, cfg: cfg}
}

// Route returns the destination directory (relative, forward slashes)
// and the tier that produced it. First matching tier wins.
func (r *Router) Route(ctx context.Context, a domain.AnalysisResult) (string, domain.RoutingSource) {
	// Tier 1: learned preference, stored path used verbatim.
	if r.prefs != nil && a.Vendor != "" {
		key := driven.PreferenceKey{Vendor: a.Vendor, Category: a.Category.String()}
		value, ok, err := r.prefs.Lookup(ctx, driven.KindVendorFolder, key, r.cfg.MinPreferenceConfidence)
		if err != nil {
			logger.Warn("preference lookup failed for %s/%s: %v", a.Vendor, a.Category, err)
		} else if ok {
			logger.Debug("learned preference fired: %s/%s -> %s", a.Vendor, a.Category, value)
			return value, domain.RoutePreference
		}
	}

	// Tier 2: date partition for the configured financial categories.
	if r.cfg.isDatePartitioned(a.Category) {
		return BuildDatePartitionPath(a.Category, a.Date, r.cfg), domain.RouteDatePartition
	}

	// Tier 3: semantic fallback on the vendor.
	return r.semanticPath(a), domain.RouteSemantic
}

// BuildDatePartitionPath builds <Label>/<Year>/<Month> from a raw date
// string, substituting placeholders when nothing parses.
func BuildDatePartitionPath(cat domain.Category, date string, cfg RouterConfig) string {
	year, month := parseYearMonth(date)

	template := cfg.Templates[cat]
	if template == "" {
		template = cfg.Label(cat) + "/{year}/{month}"
	}
	template = normaliseTemplate(template)

	out := strings.ReplaceAll(template, "{year}", year)
	out = strings.ReplaceAll(out, "{month}", month)
	return out
}

// semanticPath builds <Label>/<Vendor>, falling back to the General
// folder when the vendor is absent or a placeholder.
func (r *Router) semanticPath(a domain.AnalysisResult) string {
	vendor := strings.TrimSpace(a.Vendor)
	if _, placeholder := placeholderVendors[strings.ToLower(vendor)]; placeholder {
		return r.cfg.Label(a.Category) + "/" + semanticDefaultFolder
	}

	template := r.cfg.Templates[a.Category]
	if template == "" {
		template = r.cfg.Label(a.Category) + "/{vendor}"
	}
	template = normaliseTemplate(template)

	return strings.ReplaceAll(template, "{vendor}", sanitiseVendor(vendor))
}

// sanitiseVendor makes a vendor name safe as a single path segment.
func sanitiseVendor(vendor string) string {
	var b strings.Builder
	for _, r := range vendor {
		if strings.ContainsRune(`<>:"/\|?*`, r) {
			b.WriteRune('_')
		} else {
			b.WriteRune(r)
		}
	}
	return strings.TrimRight(b.String(), ". ")
}

// normaliseTemplate strips archive-root prefixes and leading separators
// left over from hand-edited configuration.
func normaliseTemplate(t string) string {
	t = strings.ReplaceAll(t, "\\", "/")
	t = strings.TrimPrefix(t, "archive/")
	return strings.TrimLeft(t, "/")
}

// Date patterns, tried in order.
var (
	ymdPattern = regexp.MustCompile(`(20\d{2})[-/.](\d{1,2})[-/.](\d{1,2})`)
	ymPattern  = regexp.MustCompile(`(20\d{2})[-/.](\d{1,2})`)
	cjkPattern = regexp.MustCompile(`(20\d{2})年(\d{1,2})月`)
	engPattern = regexp.MustCompile(`(?i)\b(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?\s+(?:(\d{1,2})(?:st|nd|rd|th)?,?\s+)?(20\d{2})`)
)

var engMonths = map[string]string{
	"jan": "01", "feb": "02", "mar": "03", "apr": "04",
	"may": "05", "jun": "06", "jul": "07", "aug": "08",
	"sep": "09", "oct": "10", "nov": "11", "dec": "12",
}

// parseYearMonth extracts (year, zero-padded month) from a free-form
// date string. Unparseable input yields the unknown placeholders rather
// than an error.
func parseYearMonth(date string) (string, string) {
	date = strings.TrimSpace(date)
	if date == "" {
		return UnknownYear, UnknownMonth
	}

	if m := ymdPattern.FindStringSubmatch(date); m != nil {
		return m[1], padMonth(m[2])
	}
	if m := ymPattern.FindStringSubmatch(date); m != nil {
		return m[1], padMonth(m[2])
	}
	if m := cjkPattern.FindStringSubmatch(date); m != nil {
		return m[1], padMonth(m[2])
	}
	if m := engPattern.FindStringSubmatch(date); m != nil {
		return m[3], engMonths[strings.ToLower(m[1])]
	}

	return UnknownYear, UnknownMonth
}

func padMonth(m string) string {
	if len(m) == 1 {
		return "0" + m
	}
	if len(m) != 2 {
		return UnknownMonth
	}
	return m
}

// String implements fmt.Stringer for debug output.
func (c RouterConfig) String() string {
	return fmt.Sprintf("router(labels=%d partitioned=%v)", len(c.Labels), c.DatePartitioned)
}
