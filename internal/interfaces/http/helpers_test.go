package http

import (
	"net/url"
	"strconv"
)

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func urlEncode(s string) string {
	return url.QueryEscape(s)
}
