package auth

import (
	"strconv"

	"github.com/baechuer/chatcpe-service/internal/domain"
)

func domainCode(err error) string {
	if err == nil {
		return ""
	}
	if code := domain.CodeOf(err); code != "" {
		return code
	}
	return "non_domain_error"
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}
