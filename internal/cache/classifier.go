package cache

import (
	"net/http"
	"path"
	"strings"
)

// Class of a request, deciding which strategy and partition apply.
type Class int

const (
	ClassStatic Class = iota
	ClassAPI
	ClassNavigation
	ClassMedia
	ClassDefault
)

func (c Class) String() string {
	switch c {
	case ClassStatic:
		return "static"
	case ClassAPI:
		return "api"
	case ClassNavigation:
		return "navigation"
	case ClassMedia:
		return "media"
	default:
		return "default"
	}
}

// Classifier applies the policy rules in fixed order; first match wins.
type Classifier struct {
	policy   Policy
	precache map[string]struct{}
	media    map[string]struct{}
}

func NewClassifier(p Policy) *Classifier {
	c := &Classifier{
		policy:   p,
		precache: make(map[string]struct{}, len(p.Precache)),
		media:    make(map[string]struct{}, len(p.MediaExts)),
	}
	for _, asset := range p.Precache {
		c.precache[asset] = struct{}{}
	}
	for _, ext := range p.MediaExts {
		c.media[strings.ToLower(ext)] = struct{}{}
	}
	return c
}

func (c *Classifier) Classify(r *http.Request) Class {
	p := r.URL.Path
	switch {
	case c.isStatic(p):
		return ClassStatic
	case c.isAPI(p):
		return ClassAPI
	case c.isNavigation(r):
		return ClassNavigation
	case c.isMedia(p):
		return ClassMedia
	default:
		return ClassDefault
	}
}

func (c *Classifier) isStatic(p string) bool {
	if _, ok := c.precache[p]; ok {
		return true
	}
	if strings.HasSuffix(p, ".css") || strings.HasSuffix(p, ".js") {
		return true
	}
	return c.policy.FontsMarker != "" && strings.Contains(p, c.policy.FontsMarker)
}

func (c *Classifier) isAPI(p string) bool {
	for _, prefix := range c.policy.APIPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	for _, ep := range c.policy.APIEndpoints {
		if strings.HasPrefix(p, ep) {
			return true
		}
	}
	return false
}

func (c *Classifier) isNavigation(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "text/html") {
		return true
	}
	return strings.HasSuffix(r.URL.Path, ".html") || r.URL.Path == "/"
}

func (c *Classifier) isMedia(p string) bool {
	_, ok := c.media[strings.ToLower(path.Ext(p))]
	return ok
}
