// Package releases imports GitHub releases of an asset's repository as
// asset versions.
package releases

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/google/go-github/v68/github"
	"github.com/zulandar/rdtrack/internal/asset"
	"github.com/zulandar/rdtrack/internal/dates"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

const perPage = 100

// Lister lists the releases of a repository. *github.RepositoriesService
// satisfies it.
type Lister interface {
	ListReleases(ctx context.Context, owner, repo string, opts *github.ListOptions) ([]*github.RepositoryRelease, *github.Response, error)
}

// NewClient returns a GitHub client, authenticated when token is set.
func NewClient(ctx context.Context, token string) *github.Client {
	if token == "" {
		return github.NewClient(nil)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return github.NewClient(oauth2.NewClient(ctx, ts))
}

// Result summarizes one sync.
type Result struct {
	AssetID string   `json:"asset_id"`
	Added   []string `json:"added"`
	Skipped int      `json:"skipped"`
}

// Sync adds a version for every published release of the asset's repository
// whose tag is not already recorded. Drafts are ignored. Versions are added
// oldest first.
func Sync(ctx context.Context, db *gorm.DB, lister Lister, assetID string) (*Result, error) {
	a, err := asset.Get(db, assetID)
	if err != nil {
		return nil, fmt.Errorf("releases: %w", err)
	}
	owner, repo, ok := splitRepository(a.Repository)
	if !ok {
		return nil, fmt.Errorf("releases: asset %s has no repository in owner/name form (got %q)", assetID, a.Repository)
	}

	known := make(map[string]bool, len(a.Versions))
	for _, v := range a.Versions {
		known[v.Version] = true
	}

	var all []*github.RepositoryRelease
	opts := &github.ListOptions{PerPage: perPage}
	for {
		page, resp, err := lister.ListReleases(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("releases: list %s/%s: %w", owner, repo, err)
		}
		all = append(all, page...)
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].GetPublishedAt().Before(all[j].GetPublishedAt().Time)
	})

	res := &Result{AssetID: assetID, Added: []string{}}
	for _, rel := range all {
		tag := rel.GetTagName()
		if rel.GetDraft() || tag == "" || known[tag] {
			res.Skipped++
			continue
		}
		vo := asset.VersionOpts{Version: tag, Notes: rel.GetBody()}
		if pub := rel.GetPublishedAt(); !pub.IsZero() {
			vo.VersionDate = dates.Format(pub.UTC())
		}
		if _, err := asset.AddVersion(db, assetID, vo); err != nil {
			return res, fmt.Errorf("releases: %w", err)
		}
		known[tag] = true
		res.Added = append(res.Added, tag)
	}
	log.Printf("releases: %s/%s into %s: %d added, %d skipped", owner, repo, assetID, len(res.Added), res.Skipped)
	return res, nil
}

func splitRepository(s string) (owner, repo string, ok bool) {
	s = strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(s), "https://github.com/"), ".git")
	owner, repo, ok = strings.Cut(s, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", false
	}
	return owner, repo, true
}
