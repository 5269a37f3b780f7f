package storage

import "context"

// StorageInterface defines the contract for the report archive
type StorageInterface interface {
	Store(ctx context.Context, filename string, data []byte) error
	Retrieve(ctx context.Context, filename string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, filename string) error
}

// ReportPath is the archive path of an exported report, grouped by activation
func ReportPath(activationID, filename string) string {
	if activationID == "" {
		activationID = "unassigned"
	}
	return "reports/" + activationID + "/" + filename
}
