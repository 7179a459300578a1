package services

import (
	"context"
	"encoding/json"

	"github.com/vpskeeper/vpskeeper/internal/models"
)

// ExportedServer is one server in an export bundle. Ciphertext may be
// included on request; plaintext secrets never leave the cipher.
type ExportedServer struct {
	Name            string   `json:"name"`
	Role            string   `json:"role"`
	Provider        string   `json:"provider"`
	IP4             string   `json:"ip4"`
	IP6             *string  `json:"ip6"`
	Domain          *string  `json:"domain"`
	SSHPort         int      `json:"ssh_port"`
	SSHUser         string   `json:"ssh_user"`
	SecretType      string   `json:"secret_type"`
	SecretEncrypted string   `json:"secret_encrypted,omitempty"`
	Tags            []string `json:"tags"`
	Notes           string   `json:"notes"`
	IsFavorite      bool     `json:"is_favorite"`
}

type ExportedManual struct {
	Title        string   `json:"title"`
	Category     string   `json:"category"`
	Tags         []string `json:"tags"`
	BodyMarkdown string   `json:"body_markdown"`
}

type ExportBundle struct {
	Servers []ExportedServer `json:"servers"`
	Manuals []ExportedManual `json:"manuals"`
}

func (b *ExportBundle) JSON() ([]byte, error) {
	return json.MarshalIndent(b, "", "  ")
}

// ExportService assembles a full JSON snapshot of an owner's data.
type ExportService struct {
	servers *ServerService
	manuals *ManualService
}

func NewExportService(servers *ServerService, manuals *ManualService) *ExportService {
	return &ExportService{servers: servers, manuals: manuals}
}

func (s *ExportService) ExportUserData(ctx context.Context, ownerID int64, includeSecret bool) (*ExportBundle, error) {
	servers, _, err := s.servers.ListServers(ctx, ListOptions{
		OwnerTelegramID: ownerID,
		Page:            1,
		PageSize:        1000,
		Scope:           ScopeAll,
	})
	if err != nil {
		return nil, err
	}

	manuals, err := s.manuals.ListManuals(ctx, ownerID, "")
	if err != nil {
		return nil, err
	}

	bundle := &ExportBundle{
		Servers: make([]ExportedServer, 0, len(servers)),
		Manuals: make([]ExportedManual, 0, len(manuals)),
	}
	for _, srv := range servers {
		exported := ExportedServer{
			Name:       srv.Name,
			Role:       string(srv.Role),
			Provider:   srv.Provider,
			IP4:        srv.IP4,
			IP6:        srv.IP6,
			Domain:     srv.Domain,
			SSHPort:    srv.SSHPort,
			SSHUser:    srv.SSHUser,
			SecretType: string(srv.SecretType),
			Tags:       tagNames(srv.Tags),
			Notes:      srv.Notes,
			IsFavorite: srv.IsFavorite,
		}
		if includeSecret {
			exported.SecretEncrypted = srv.SecretEncrypted
		}
		bundle.Servers = append(bundle.Servers, exported)
	}
	for _, m := range manuals {
		tags := make([]string, 0, len(m.Tags))
		for _, t := range m.Tags {
			tags = append(tags, t.Tag)
		}
		bundle.Manuals = append(bundle.Manuals, ExportedManual{
			Title:        m.Title,
			Category:     string(m.Category),
			Tags:         tags,
			BodyMarkdown: m.BodyMarkdown,
		})
	}
	return bundle, nil
}

func tagNames(tags []models.ServerTag) []string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Tag)
	}
	return names
}
