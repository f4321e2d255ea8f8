package dto

// ArchiveRequest selects tickets to archive to object storage.
type ArchiveRequest struct {
	Format    string   `json:"format"`
	Extended  bool     `json:"extended"`
	TicketIDs []string `json:"ticket_ids"`
}

// ArchiveResponse points at an uploaded export.
type ArchiveResponse struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Rows int    `json:"rows"`
}
