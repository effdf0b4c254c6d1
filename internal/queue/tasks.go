package queue

const TypeArchiveStore = "archive:store"

// ArchiveStorePayload moves a staged upload into the team's PDF archive.
type ArchiveStorePayload struct {
	TeamID      int64  `json:"team_id"`
	Filename    string `json:"filename"`
	StagingPath string `json:"staging_path"`
}
