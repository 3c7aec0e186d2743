package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

type jobListCacheKeyInput struct {
	Category string `json:"category"`
	Portal   string `json:"portal"`
	Level    string `json:"level"`
	Limit    int    `json:"limit"`
	Offset   int    `json:"offset"`
}

func normalizeSearchValue(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	s = strings.Join(strings.Fields(s), " ")
	return s
}

func JobsListCacheKey(params JobListParams) string {
	in := jobListCacheKeyInput{
		Category: normalizeSearchValue(params.Category),
		Portal:   normalizeSearchValue(params.Portal),
		Level:    normalizeSearchValue(params.Level),
		Limit:    params.Limit,
		Offset:   params.Offset,
	}

	b, _ := json.Marshal(in)
	sum := sha256.Sum256(b)
	return "jobs:list:" + hex.EncodeToString(sum[:])
}
