package domain

import (
	"sort"
	"time"
)

const DefaultMonitorInterval = 1440

type MonitorConfig struct {
	Interval int                       `yaml:"interval"`
	LastRun  time.Time                 `yaml:"last_run,omitempty"`
	Lists    map[string]*MonitoredList `yaml:"lists"`
}

type MonitoredList struct {
	Enabled        bool           `yaml:"enabled"`
	LastCheck      time.Time      `yaml:"last_check,omitempty"`
	ErrorCount     int            `yaml:"error_count"`
	DuplicateCount int            `yaml:"duplicate_count"`
	URLs           []MonitoredURL `yaml:"urls"`
}

type MonitoredURL struct {
	URL        string    `yaml:"url"`
	LastCheck  time.Time `yaml:"last_check,omitempty"`
	TitleCount int       `yaml:"title_count"`
	TotalAdded int       `yaml:"total_added"`
}

func NewMonitorConfig() *MonitorConfig {
	return &MonitorConfig{
		Interval: DefaultMonitorInterval,
		Lists:    map[string]*MonitoredList{},
	}
}

// Names returns the monitored list names in sorted order.
func (c *MonitorConfig) Names() []string {
	names := make([]string, 0, len(c.Lists))
	for name := range c.Lists {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *MonitorConfig) IntervalDuration() time.Duration {
	if c.Interval <= 0 {
		return DefaultMonitorInterval * time.Minute
	}
	return time.Duration(c.Interval) * time.Minute
}

// NextCheck is when l becomes due. A list never checked is due immediately.
func (l *MonitoredList) NextCheck(interval time.Duration) time.Time {
	if l.LastCheck.IsZero() {
		return time.Time{}
	}
	return l.LastCheck.Add(interval)
}

func (l *MonitoredList) Due(now time.Time, interval time.Duration) bool {
	return l.Enabled && !now.Before(l.NextCheck(interval))
}

// AddURL appends u unless it is already monitored.
func (l *MonitoredList) AddURL(u string) bool {
	for _, existing := range l.URLs {
		if existing.URL == u {
			return false
		}
	}
	l.URLs = append(l.URLs, MonitoredURL{URL: u})
	return true
}

func (l *MonitoredList) RemoveURL(u string) bool {
	for i, existing := range l.URLs {
		if existing.URL == u {
			l.URLs = append(l.URLs[:i], l.URLs[i+1:]...)
			return true
		}
	}
	return false
}

type MonitorReport struct {
	Checked []string
	Skipped []string
	Titles  int
	New     int
	Errors  int
	Dupes   int
}
