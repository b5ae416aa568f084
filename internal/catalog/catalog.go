// Package catalog lists popular services with their cancellation pages.
package catalog

import (
	"strings"

	"github.com/gosimple/slug"
)

// Service is one well-known subscription offering.
type Service struct {
	Name         string  `json:"name"`
	Slug         string  `json:"slug"`
	LogoColor    string  `json:"logoColor"`
	LogoText     string  `json:"logoText"`
	CancelURL    string  `json:"cancelUrl"`
	AveragePrice float64 `json:"averagePrice"`
}

// Catalog is an immutable, ordered set of services indexed by slug.
type Catalog struct {
	services []Service
	bySlug   map[string]int
}

// New builds a catalog. Slugs are derived from names when empty; later duplicates are dropped.
func New(services []Service) *Catalog {
	c := &Catalog{bySlug: make(map[string]int, len(services))}
	for _, svc := range services {
		if svc.Slug == "" {
			svc.Slug = keyFor(svc.Name)
		}
		if _, dup := c.bySlug[svc.Slug]; dup {
			continue
		}
		c.bySlug[svc.Slug] = len(c.services)
		c.services = append(c.services, svc)
	}
	return c
}

// Default returns the built-in list of popular services.
func Default() *Catalog {
	return New(popular)
}

// All returns a copy of the services in display order.
func (c *Catalog) All() []Service {
	out := make([]Service, len(c.services))
	copy(out, c.services)
	return out
}

// Lookup finds a service by slug.
func (c *Catalog) Lookup(key string) (Service, bool) {
	i, ok := c.bySlug[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return Service{}, false
	}
	return c.services[i], true
}

// Match finds a service whose name matches the free-text name a user typed.
func (c *Catalog) Match(name string) (Service, bool) {
	if strings.TrimSpace(name) == "" {
		return Service{}, false
	}
	return c.Lookup(keyFor(name))
}

// keyFor slugs a name, spelling out '+' so "Disney+" and "Disney Plus" agree.
func keyFor(name string) string {
	return slug.Make(strings.ReplaceAll(name, "+", " plus "))
}

var popular = []Service{
	{Name: "Netflix", LogoColor: "bg-red-600", LogoText: "N", CancelURL: "https://www.netflix.com/cancelplan", AveragePrice: 17.99},
	{Name: "Spotify", LogoColor: "bg-green-500", LogoText: "S", CancelURL: "https://www.spotify.com/account/", AveragePrice: 9.99},
	{Name: "Adobe Creative Cloud", LogoColor: "bg-red-600", LogoText: "Ai", CancelURL: "https://account.adobe.com/", AveragePrice: 24.19},
	{Name: "Disney+", LogoColor: "bg-blue-600", LogoText: "D+", CancelURL: "https://www.disneyplus.com/account/", AveragePrice: 8.99},
	{Name: "HBO Max", LogoColor: "bg-purple-600", LogoText: "H", CancelURL: "https://www.max.com/account/", AveragePrice: 9.99},
	{Name: "YouTube Premium", LogoColor: "bg-red-500", LogoText: "YT", CancelURL: "https://www.youtube.com/account/", AveragePrice: 11.99},
	{Name: "Microsoft 365", LogoColor: "bg-blue-600", LogoText: "M", CancelURL: "https://account.microsoft.com/", AveragePrice: 6.99},
	{Name: "Slack", LogoColor: "bg-purple-600", LogoText: "S", CancelURL: "https://slack.com/account/", AveragePrice: 6.67},
	{Name: "Zoom Pro", LogoColor: "bg-blue-600", LogoText: "Z", CancelURL: "https://zoom.us/account/", AveragePrice: 14.99},
	{Name: "Trello", LogoColor: "bg-blue-500", LogoText: "T", CancelURL: "https://trello.com/account/", AveragePrice: 5.00},
	{Name: "Evernote", LogoColor: "bg-blue-700", LogoText: "E", CancelURL: "https://www.evernote.com/Settings.action", AveragePrice: 7.99},
	{Name: "LinkedIn Premium", LogoColor: "bg-blue-600", LogoText: "Li", CancelURL: "https://www.linkedin.com/psettings/", AveragePrice: 29.99},
	{Name: "Canva Pro", LogoColor: "bg-purple-500", LogoText: "C", CancelURL: "https://www.canva.com/settings/", AveragePrice: 12.99},
	{Name: "Grammarly", LogoColor: "bg-green-600", LogoText: "G", CancelURL: "https://account.grammarly.com/", AveragePrice: 12.00},
	{Name: "Dropbox Plus", LogoColor: "bg-blue-500", LogoText: "D", CancelURL: "https://www.dropbox.com/account/", AveragePrice: 9.99},
	{Name: "GitHub Pro", LogoColor: "bg-gray-900", LogoText: "G", CancelURL: "https://github.com/settings/", AveragePrice: 4.00},
	{Name: "Figma Pro", LogoColor: "bg-gray-800", LogoText: "F", CancelURL: "https://www.figma.com/settings/", AveragePrice: 12.00},
}
