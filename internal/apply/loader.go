package apply

import (
	"net/url"

	"github.com/fontshim/fontshim/pkg/caching"
	"github.com/fontshim/fontshim/pkg/cssdom"
	"github.com/fontshim/fontshim/pkg/fetcher"
)

// sheetLoader is the host's stylesheet access policy: same-origin hrefs are
// loaded directly (through the CSS body cache when one is configured),
// everything else is denied, which routes the engine to its fallback fetch
// path — the same split a browser's CSSOM enforces.
type sheetLoader struct {
	origin *url.URL
	client *fetcher.Client
	cache  *caching.Cache
}

func newSheetLoader(pageURL string, client *fetcher.Client, cache *caching.Cache) (*sheetLoader, error) {
	origin, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}
	return &sheetLoader{origin: origin, client: client, cache: cache}, nil
}

func (l *sheetLoader) Load(href string) ([]byte, error) {
	u, err := url.Parse(href)
	if err != nil {
		return nil, cssdom.ErrAccessDenied
	}
	if u.Scheme != l.origin.Scheme || u.Host != l.origin.Host {
		return nil, cssdom.ErrAccessDenied
	}

	if l.cache != nil {
		if body, ok := l.cache.Get(href); ok {
			return body, nil
		}
	}
	body, err := l.client.GetCSS(href)
	if err != nil {
		return nil, err
	}
	if l.cache != nil {
		// Cache write failures are not worth failing the sheet over.
		_ = l.cache.Set(href, body)
	}
	return body, nil
}
