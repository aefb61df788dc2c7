package client

import "time"

// Company represents a customer organisation on the platform
type Company struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Domain       string    `json:"domain"`
	ContactEmail string    `json:"contact_email"`
	Status       string    `json:"status"` // active, suspended, pending
	PlanID       *int64    `json:"plan_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CompanyStats summarises companies by status
type CompanyStats struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Suspended int `json:"suspended"`
	Pending   int `json:"pending"`
}

// PlatformUser represents an operator account of the console
type PlatformUser struct {
	ID          int64      `json:"id"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name"`
	Role        string     `json:"role"` // admin, analyst, viewer
	CompanyID   *int64     `json:"company_id,omitempty"`
	Status      string     `json:"status"` // active, suspended
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Invoice is a billing document issued to a company
type Invoice struct {
	ID        int64      `json:"id"`
	CompanyID int64      `json:"company_id"`
	Number    string     `json:"number"`
	Amount    float64    `json:"amount"`
	Currency  string     `json:"currency"`
	Status    string     `json:"status"` // paid, pending, overdue, void
	DueDate   time.Time  `json:"due_date"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Payment is a settlement recorded against an invoice
type Payment struct {
	ID        int64     `json:"id"`
	InvoiceID int64     `json:"invoice_id"`
	CompanyID int64     `json:"company_id"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	Method    string    `json:"method"`
	Status    string    `json:"status"`
	PaidAt    time.Time `json:"paid_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Subscription links a company to a plan
type Subscription struct {
	ID               int64     `json:"id"`
	CompanyID        int64     `json:"company_id"`
	PlanID           int64     `json:"plan_id"`
	Status           string    `json:"status"` // active, trialing, canceled, past_due
	CurrentPeriodEnd time.Time `json:"current_period_end"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// BillingStats summarises billing state
type BillingStats struct {
	RevenueMonth        float64 `json:"revenue_month"`
	Outstanding         float64 `json:"outstanding"`
	OverdueInvoices     int     `json:"overdue_invoices"`
	ActiveSubscriptions int     `json:"active_subscriptions"`
}

// Site is a dark web source crawled by a scraper
type Site struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	URL           string     `json:"url"`
	Category      string     `json:"category"` // forum, marketplace, paste, leak, telegram
	Status        string     `json:"status"`   // active, paused, error
	ScraperID     *int64     `json:"scraper_id,omitempty"`
	ScrapeStatus  string     `json:"scrape_status,omitempty"`
	LastScrapedAt *time.Time `json:"last_scraped_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// SiteStats summarises scraping activity
type SiteStats struct {
	TotalSites     int `json:"total_sites"`
	ActiveSites    int `json:"active_sites"`
	Last24hScrapes int `json:"last_24h_scrapes"`
	FailedScrapes  int `json:"failed_scrapes"`
}

// Scraper is an uploaded scraper module
type Scraper struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Filename   string    `json:"filename"`
	Version    string    `json:"version,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TelegramAccount is a session used to read telegram channels
type TelegramAccount struct {
	ID        int64     `json:"id"`
	Phone     string    `json:"phone"`
	Username  string    `json:"username,omitempty"`
	APIID     int64     `json:"api_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Plan is a subscription tier
type Plan struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Currency    string    `json:"currency"`
	Interval    string    `json:"interval"` // month, year
	MaxKeywords int       `json:"max_keywords"`
	MaxUsers    int       `json:"max_users"`
	Features    []string  `json:"features,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MonitoredResource is a keyword, domain or address watched for leaks
type MonitoredResource struct {
	ID           int64      `json:"id"`
	CompanyID    *int64     `json:"company_id,omitempty"`
	Keyword      string     `json:"keyword"`
	ResourceType string     `json:"resource_type"` // domain, email, keyword, ip
	Status       string     `json:"status"`        // active, paused
	LastHitAt    *time.Time `json:"last_hit_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Alert is a hit on a monitored resource
type Alert struct {
	ID                  int64     `json:"id"`
	MonitoredResourceID int64     `json:"monitored_resource_id"`
	CompanyID           *int64    `json:"company_id,omitempty"`
	Title               string    `json:"title"`
	Severity            string    `json:"severity"` // critical, high, medium, low
	Status              string    `json:"status"`   // open, acknowledged, resolved
	Source              string    `json:"source"`
	SourceURL           string    `json:"source_url,omitempty"`
	DetectedAt          time.Time `json:"detected_at"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// AccountSettings holds the signed-in operator's preferences
type AccountSettings struct {
	Email          string `json:"email"`
	FullName       string `json:"full_name"`
	NotifyEmail    bool   `json:"notify_email"`
	NotifyTelegram bool   `json:"notify_telegram"`
	Timezone       string `json:"timezone"`
}

// GetID returns the company id
func (c Company) GetID() int64 { return c.ID }

// GetID returns the user id
func (u PlatformUser) GetID() int64 { return u.ID }

// GetID returns the invoice id
func (i Invoice) GetID() int64 { return i.ID }

// GetID returns the payment id
func (p Payment) GetID() int64 { return p.ID }

// GetID returns the subscription id
func (s Subscription) GetID() int64 { return s.ID }

// GetID returns the site id
func (s Site) GetID() int64 { return s.ID }

// GetID returns the scraper id
func (s Scraper) GetID() int64 { return s.ID }

// GetID returns the account id
func (t TelegramAccount) GetID() int64 { return t.ID }

// GetID returns the plan id
func (p Plan) GetID() int64 { return p.ID }

// GetID returns the monitored resource id
func (m MonitoredResource) GetID() int64 { return m.ID }

// GetID returns the alert id
func (a Alert) GetID() int64 { return a.ID }

// TaskState is the lifecycle state of a background task
type TaskState string

// Task states reported by the task status endpoint
const (
	TaskPending TaskState = "PENDING"
	TaskStarted TaskState = "STARTED"
	TaskSuccess TaskState = "SUCCESS"
	TaskFailure TaskState = "FAILURE"
)

// Terminal reports whether no further transitions will happen
func (s TaskState) Terminal() bool {
	return s == TaskSuccess || s == TaskFailure
}

// TaskRef is returned when a background task is submitted
type TaskRef struct {
	TaskID string `json:"task_id"`
}

// TaskStatus is the state of a background task
type TaskStatus struct {
	TaskID string                 `json:"task_id"`
	Status TaskState              `json:"status"`
	Result map[string]interface{} `json:"result,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

// ListOptions contains common options for list operations
type ListOptions struct {
	Page     int    `json:"page,omitempty"`      // Page number (1-based)
	PageSize int    `json:"page_size,omitempty"` // Items per page
	Search   string `json:"search,omitempty"`    // Server-side search query
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services,omitempty"`
}
