package streams

import (
	"errors"
	"strings"

	"github.com/bcview/bcview/pkg/core"
)

type Handler func(source string) (core.Producer, error)

var handlers = map[string]Handler{}

func HandleFunc(scheme string, handler Handler) {
	handlers[scheme] = handler
}

func HasProducer(url string) bool {
	if i := strings.IndexByte(url, ':'); i > 0 {
		if _, ok := handlers[url[:i]]; ok {
			return true
		}
	}
	return false
}

func GetProducer(url string) (core.Producer, error) {
	if i := strings.IndexByte(url, ':'); i > 0 {
		if handler, ok := handlers[url[:i]]; ok {
			return handler(url)
		}
	}
	return nil, errors.New("streams: unsupported scheme: " + url)
}
