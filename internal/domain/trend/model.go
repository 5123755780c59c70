package trend

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SourcePage is one page of the upstream trend listing. Records are kept as
// delivered.
type SourcePage struct {
	Count int        `json:"count"`
	Data  []Document `json:"data"`
}

// Page is a raw batch as persisted: the whole fetched page after normalization
type Page struct {
	ID        primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	Count     int                `json:"count" bson:"count"`
	Data      []Document         `json:"data" bson:"data"`
	Gender    string             `json:"gender" bson:"gender"`
	Page      int                `json:"page" bson:"page"`
	FetchedAt time.Time          `json:"fetchedAt" bson:"fetchedAt"`
}

// UniqueTrend is the denormalized per-name projection of a fetched page
type UniqueTrend struct {
	ID     primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	Name   string             `json:"name" bson:"name"`
	Gender string             `json:"gender" bson:"gender"`
	Data   Document           `json:"data" bson:"data"`
}

// Product is an e-commerce listing associated with a trend, stored as
// delivered plus the stamped trend fields
type Product = Document

// Fields stamped onto every stored product
const (
	ProductCategory    = "category"
	ProductTrendID     = "trendId"
	ProductTrendName   = "trendName"
	ProductTrendGender = "trendGender"
)

// Candidate is a stored trend eligible for product enrichment
type Candidate struct {
	ID         string `bson:"id"`
	Name       string `bson:"name"`
	Gender     string `bson:"gender"`
	ImageCount int    `bson:"imageCount"`
}

// ImageCount is the number of stored images for one trend name
type ImageCount struct {
	Name       string   `bson:"_id"`
	ImageCount int      `bson:"imageCount"`
	FirstImage Document `bson:"firstImage"`
}

// TopTrend is a trend ranked by image count within a category
type TopTrend struct {
	Name                   string   `json:"name"`
	ImageCount             int      `json:"imageCount"`
	PercentageDistribution float64  `json:"percentageDistribution"`
	FirstImage             Document `json:"firstImage,omitempty"`
}

// DayCount is the number of images observed on one UTC calendar day
type DayCount struct {
	Date  string `json:"date" bson:"_id"`
	Count int    `json:"count" bson:"count"`
}

// SourceCount is the number of products from one e-commerce source
type SourceCount struct {
	Ecommerce string `bson:"_id"`
	Count     int    `bson:"count"`
}

// Contribution is an e-commerce source's share of a product set
type Contribution struct {
	Ecommerce              string  `json:"ecommerce"`
	PercentageContribution float64 `json:"percentage_contribution"`
}

// ContributionReport holds category and trend level breakdowns
type ContributionReport struct {
	Category                   string         `json:"category"`
	TrendName                  string         `json:"trendName,omitempty"`
	CategoryLevelContributions []Contribution `json:"category_level_contributions"`
	TrendLevelContributions    []Contribution `json:"trend_level_contributions"`
}

// CategoryTrends lists the distinct trend names stored for one category
type CategoryTrends struct {
	Category string   `json:"category" bson:"_id"`
	Trends   []string `json:"trends" bson:"trends"`
}

// ProductFilter selects products by trend and e-commerce source
type ProductFilter struct {
	Category  string
	TrendName string
	Ecommerce string
}

// PriceBracket is a half-open price range [Min, Max). Max of +Inf is unbounded.
type PriceBracket struct {
	Min float64
	Max float64
}

// DefaultPriceBrackets returns the six fixed brackets used for histograms
func DefaultPriceBrackets() []PriceBracket {
	return []PriceBracket{
		{Min: 0, Max: 1000},
		{Min: 1000, Max: 2000},
		{Min: 2000, Max: 3000},
		{Min: 3000, Max: 4000},
		{Min: 4000, Max: 5000},
		{Min: 5000, Max: math.Inf(1)},
	}
}

// Contains reports whether price falls inside the bracket
func (b PriceBracket) Contains(price float64) bool {
	return price >= b.Min && price < b.Max
}

// Unbounded reports whether the bracket has no upper limit
func (b PriceBracket) Unbounded() bool {
	return math.IsInf(b.Max, 1)
}

// Label renders the bracket as e.g. "INR 1000-2000" or "INR 5000-inf"
func (b PriceBracket) Label() string {
	upper := "inf"
	if !b.Unbounded() {
		upper = strconv.FormatFloat(b.Max, 'f', -1, 64)
	}
	return fmt.Sprintf("INR %s-%s", strconv.FormatFloat(b.Min, 'f', -1, 64), upper)
}

// BracketCount is the number of products inside one price bracket
type BracketCount struct {
	Label string   `json:"label"`
	Min   float64  `json:"min"`
	Max   *float64 `json:"max"`
	Count int64    `json:"count"`
}

// RunKind identifies what an ingestion run did
type RunKind string

const (
	RunKindTrends   RunKind = "trends"
	RunKindProducts RunKind = "products"
)

// RunStatus is the lifecycle state of an ingestion run
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// Run is one ingestion or enrichment execution
type Run struct {
	ID         string     `json:"id"`
	Kind       RunKind    `json:"kind"`
	Scope      string     `json:"scope"`
	Status     RunStatus  `json:"status"`
	Pages      int        `json:"pages"`
	Documents  int        `json:"documents"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}
