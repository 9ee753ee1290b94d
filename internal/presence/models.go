package presence

import (
	"time"

	"messenger/infrastructure"
)

type Status string

const (
	StatusOnline    Status = "online"
	StatusAway      Status = "away"
	StatusBusy      Status = "busy"
	StatusInvisible Status = "invisible"
	StatusOffline   Status = "offline"
	StatusIdle      Status = "idle"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOnline, StatusAway, StatusBusy, StatusInvisible, StatusOffline, StatusIdle:
		return true
	}
	return false
}

type Platform string

const (
	PlatformWeb     Platform = "web"
	PlatformMobile  Platform = "mobile"
	PlatformDesktop Platform = "desktop"
	PlatformTablet  Platform = "tablet"
	PlatformAPI     Platform = "api"
	PlatformBot     Platform = "bot"
)

func (p Platform) Valid() bool {
	switch p {
	case PlatformWeb, PlatformMobile, PlatformDesktop, PlatformTablet, PlatformAPI, PlatformBot:
		return true
	}
	return false
}

type Activity string

const (
	ActivityIdle      Activity = "idle"
	ActivityTyping    Activity = "typing"
	ActivityCalling   Activity = "calling"
	ActivityGaming    Activity = "gaming"
	ActivityShopping  Activity = "shopping"
	ActivityStreaming Activity = "streaming"
	ActivityReading   Activity = "reading"
)

func (a Activity) Valid() bool {
	switch a {
	case ActivityIdle, ActivityTyping, ActivityCalling, ActivityGaming, ActivityShopping, ActivityStreaming, ActivityReading:
		return true
	}
	return false
}

// Active reports whether the activity counts as user input for the purpose
// of refreshing last-seen.
func (a Activity) Active() bool {
	return a != ActivityIdle
}

type DeviceInfo struct {
	OS         string `json:"os,omitempty"`
	AppVersion string `json:"app_version,omitempty"`
	Model      string `json:"model,omitempty"`
}

// Privacy controls what GetVisiblePresence exposes per viewer.
type Privacy struct {
	ShowLastSeen bool `json:"show_last_seen"`
	ShowStatus   bool `json:"show_status"`
	ShowActivity bool `json:"show_activity"`
	ShowLocation bool `json:"show_location"`
	ContactsOnly bool `json:"contacts_only"`
}

func DefaultPrivacy() Privacy {
	return Privacy{
		ShowLastSeen: true,
		ShowStatus:   true,
		ShowActivity: true,
		ShowLocation: false,
	}
}

type BusinessHours struct {
	Timezone string `json:"timezone"`
	Open     string `json:"open"`  // "09:00"
	Close    string `json:"close"` // "18:00"
}

// Metadata carries usage counters and the auto-transition thresholds.
type Metadata struct {
	SessionCount    int            `json:"session_count"`
	SessionDuration time.Duration  `json:"session_duration"`
	DailyActiveTime time.Duration  `json:"daily_active_time"`
	MessagesSent    int            `json:"messages_sent"`
	CallsMade       int            `json:"calls_made"`
	FeatureUsage    map[string]int `json:"feature_usage,omitempty"`
	BusinessHours   *BusinessHours `json:"business_hours,omitempty"`

	AutoAwayAfter    time.Duration `json:"auto_away_after"`
	AutoOfflineAfter time.Duration `json:"auto_offline_after"`
}

const (
	minAutoAway    = time.Minute
	minAutoOffline = 5 * time.Minute

	defaultAutoAway    = 10 * time.Minute
	defaultAutoOffline = 30 * time.Minute

	// onlineStaleness is how old last-seen may be while status is online.
	onlineStaleness = 5 * time.Minute
)

type Presence struct {
	UserID       string     `gorm:"primaryKey" json:"user_id"`
	Status       Status     `gorm:"type:varchar(16);not null;index" json:"status"`
	IsOnline     bool       `gorm:"index" json:"is_online"`
	LastSeen     time.Time  `json:"last_seen"`
	Platform     Platform   `gorm:"type:varchar(16)" json:"platform"`
	Device       DeviceInfo `gorm:"serializer:json" json:"device"`
	Location     string     `json:"location,omitempty"`
	Activity     Activity   `gorm:"type:varchar(16)" json:"activity"`
	CustomStatus string     `gorm:"type:varchar(120)" json:"custom_status,omitempty"`
	Privacy      Privacy    `gorm:"serializer:json" json:"privacy"`
	Metadata     Metadata   `gorm:"serializer:json" json:"metadata"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Presence) TableName() string { return "presences" }

const maxCustomStatus = 100

// NewPresence is the record created on a user's first presence report.
func NewPresence(userID string) *Presence {
	now := time.Now()
	return &Presence{
		UserID:   userID,
		Status:   StatusOffline,
		IsOnline: false,
		LastSeen: now,
		Activity: ActivityIdle,
		Privacy:  DefaultPrivacy(),
		Metadata: Metadata{
			AutoAwayAfter:    defaultAutoAway,
			AutoOfflineAfter: defaultAutoOffline,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (p *Presence) Validate() error {
	v := infrastructure.NewValidationError("presence")

	if p.UserID == "" {
		v.Add("user id is required")
	}
	if !p.Status.Valid() {
		v.Add("invalid status: %s", p.Status)
	}
	if p.Platform != "" && !p.Platform.Valid() {
		v.Add("invalid platform: %s", p.Platform)
	}
	if !p.Activity.Valid() {
		v.Add("invalid activity: %s", p.Activity)
	}
	if len(p.CustomStatus) > maxCustomStatus {
		v.Add("custom status exceeds %d characters", maxCustomStatus)
	}

	if p.Status == StatusOnline && !p.IsOnline {
		v.Add("status online requires is_online to be true")
	}
	if p.Status == StatusOffline && p.IsOnline {
		v.Add("status offline requires is_online to be false")
	}
	if p.Status == StatusOnline && time.Since(p.LastSeen) > onlineStaleness {
		v.Add("last seen is stale for an online user")
	}

	if p.Metadata.AutoAwayAfter < minAutoAway {
		v.Add("auto-away threshold must be at least 1m")
	}
	if p.Metadata.AutoOfflineAfter < minAutoOffline {
		v.Add("auto-offline threshold must be at least 5m")
	}

	return v.Err()
}

// SetOnline opens a session: refreshes last-seen and counts the session.
func (p *Presence) SetOnline(platform Platform, device DeviceInfo) error {
	if !platform.Valid() {
		v := infrastructure.NewValidationError("presence")
		v.Add("invalid platform: %s", platform)
		return v.Err()
	}
	p.Status = StatusOnline
	p.IsOnline = true
	p.LastSeen = time.Now()
	p.Platform = platform
	p.Device = device
	p.Metadata.SessionCount++
	p.UpdatedAt = time.Now()
	return p.Validate()
}

func (p *Presence) SetOffline() error {
	p.Status = StatusOffline
	p.IsOnline = false
	p.Activity = ActivityIdle
	p.UpdatedAt = time.Now()
	return p.Validate()
}

// SetAway changes status without touching is_online.
func (p *Presence) SetAway() error {
	p.Status = StatusAway
	p.UpdatedAt = time.Now()
	return p.Validate()
}

func (p *Presence) SetBusy(customStatus string) error {
	p.Status = StatusBusy
	p.CustomStatus = customStatus
	p.UpdatedAt = time.Now()
	return p.Validate()
}

func (p *Presence) SetInvisible() error {
	p.Status = StatusInvisible
	p.UpdatedAt = time.Now()
	return p.Validate()
}

// UpdateActivity refreshes last-seen only when the new activity is active.
func (p *Presence) UpdateActivity(a Activity) error {
	if !a.Valid() {
		v := infrastructure.NewValidationError("presence")
		v.Add("invalid activity: %s", a)
		return v.Err()
	}
	p.Activity = a
	if a.Active() {
		p.LastSeen = time.Now()
	}
	p.UpdatedAt = time.Now()
	return p.Validate()
}

// ShouldAutoAway is the pure predicate the scheduler polls; it never mutates.
func (p *Presence) ShouldAutoAway(now time.Time) bool {
	if p.Status != StatusOnline {
		return false
	}
	return now.Sub(p.LastSeen) >= p.Metadata.AutoAwayAfter
}

func (p *Presence) ShouldAutoOffline(now time.Time) bool {
	if p.Status == StatusOffline || p.Status == StatusInvisible {
		return false
	}
	return now.Sub(p.LastSeen) >= p.Metadata.AutoOfflineAfter
}

// View is the privacy-filtered projection served to other users.
type View struct {
	UserID       string     `json:"user_id"`
	Status       Status     `json:"status"`
	IsOnline     bool       `json:"is_online"`
	LastSeen     *time.Time `json:"last_seen,omitempty"`
	Activity     Activity   `json:"activity,omitempty"`
	CustomStatus string     `json:"custom_status,omitempty"`
	Location     string     `json:"location,omitempty"`
}

// VisibleTo applies the subject's privacy settings. Invisible renders as
// offline to everyone but the subject, with last-seen suppressed.
func (p *Presence) VisibleTo(requesterID string, isContact bool) View {
	if requesterID == p.UserID {
		ls := p.LastSeen
		return View{
			UserID:       p.UserID,
			Status:       p.Status,
			IsOnline:     p.IsOnline,
			LastSeen:     &ls,
			Activity:     p.Activity,
			CustomStatus: p.CustomStatus,
			Location:     p.Location,
		}
	}

	view := View{UserID: p.UserID, Status: StatusOffline}

	if p.Privacy.ContactsOnly && !isContact {
		return view
	}
	if p.Status == StatusInvisible {
		return view
	}

	if p.Privacy.ShowStatus {
		view.Status = p.Status
		view.IsOnline = p.IsOnline
		view.CustomStatus = p.CustomStatus
	}
	if p.Privacy.ShowLastSeen {
		ls := p.LastSeen
		view.LastSeen = &ls
	}
	if p.Privacy.ShowActivity {
		view.Activity = p.Activity
	}
	if p.Privacy.ShowLocation {
		view.Location = p.Location
	}
	return view
}
