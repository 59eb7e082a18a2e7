package endpoints

import (
	"github.com/Orsso/DocuLens/internal/api"
)

// All returns all endpoint instances.
func All() []api.Endpoint {
	return []api.Endpoint{
		// Health
		&HealthEndpoint{},

		// Documents
		&ListDocumentsEndpoint{},
		&UploadEndpoint{},

		// Images
		&ListImagesEndpoint{},
		&GetImageEndpoint{},
		&SaveImageEndpoint{},

		// Downloads
		&ArchiveEndpoint{},
		&ExportEndpoint{},

		// AI captioning
		&CaptionsEndpoint{},

		// Static files (catch-all, must be last)
		&StaticEndpoint{},
	}
}
