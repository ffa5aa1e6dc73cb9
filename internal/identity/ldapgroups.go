package identity

import (
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"

	"github.com/latticeobs/queryauth/internal/config"
	"github.com/latticeobs/queryauth/internal/security/cabundle"
	"github.com/latticeobs/queryauth/pkg/logger"
)

// GroupResolver looks up an identity's LDAP group memberships so they can be
// written into the reserved "groups" key of a constraint map.
type GroupResolver struct {
	cfg      config.LDAPConfig
	caBundle *cabundle.Manager
	logger   logger.Logger
}

// NewGroupResolver builds a resolver bound to an LDAP directory. caBundle may
// be nil when the directory is reached over plaintext or with the system
// trust store.
func NewGroupResolver(cfg config.LDAPConfig, caBundle *cabundle.Manager, log logger.Logger) *GroupResolver {
	return &GroupResolver{cfg: cfg, caBundle: caBundle, logger: log}
}

// Groups binds as the configured service account and searches for the given
// subject, returning the short names of every group it is a member of.
func (r *GroupResolver) Groups(subject string) ([]string, error) {
	if !r.cfg.Enabled {
		return nil, nil
	}

	conn, err := r.dial()
	if err != nil {
		return nil, fmt.Errorf("LDAP connection failed: %w", err)
	}
	defer conn.Close()

	if err := conn.Bind(r.cfg.BindDN, r.cfg.Password); err != nil {
		return nil, fmt.Errorf("LDAP service bind failed: %w", err)
	}

	filter := r.cfg.UserFilter
	if filter == "" {
		filter = "(uid=%s)"
	}
	searchRequest := ldap.NewSearchRequest(
		r.cfg.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0, 0, false,
		fmt.Sprintf(filter, ldap.EscapeFilter(subject)),
		[]string{r.groupAttr()},
		nil,
	)

	result, err := conn.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("LDAP search failed: %w", err)
	}
	if len(result.Entries) == 0 {
		r.logger.Warn("LDAP group lookup found no entry", "subject", subject)
		return nil, nil
	}

	memberships := result.Entries[0].GetAttributeValues(r.groupAttr())
	return extractGroupNames(memberships), nil
}

func (r *GroupResolver) groupAttr() string {
	if r.cfg.GroupAttr == "" {
		return "memberOf"
	}
	return r.cfg.GroupAttr
}

func (r *GroupResolver) dial() (*ldap.Conn, error) {
	if strings.HasPrefix(r.cfg.URL, "ldaps://") && r.caBundle != nil {
		return ldap.DialURL(r.cfg.URL, ldap.DialWithTLSConfig(r.caBundle.TLSConfig(false)))
	}
	if strings.HasPrefix(r.cfg.URL, "ldaps://") {
		return ldap.DialURL(r.cfg.URL, ldap.DialWithTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12}))
	}
	return ldap.DialURL(r.cfg.URL)
}

// extractGroupNames pulls the CN out of each group DN, e.g.
// "cn=query-readers,ou=groups,dc=example,dc=com" -> "query-readers".
func extractGroupNames(memberOf []string) []string {
	var groups []string
	for _, dn := range memberOf {
		parts := strings.Split(dn, ",")
		if len(parts) == 0 {
			continue
		}
		cnPart := strings.TrimSpace(parts[0])
		if strings.HasPrefix(strings.ToLower(cnPart), "cn=") {
			groups = append(groups, cnPart[3:])
		}
	}
	return groups
}
