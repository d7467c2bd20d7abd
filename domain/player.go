package domain

// Player is the durable record behind a serial. It is the source of truth
// for xp/wins/moderation state; in-room copies are resynced from it.
type Player struct {
	Serial         string       `json:"serial"`
	Name           string       `json:"name"`
	Avatar         string       `json:"avatar"`
	XP             int          `json:"xp"`
	Wins           int          `json:"wins"`
	Reports        int          `json:"reports"`
	BanUntil       int64        `json:"banUntil"` // epoch ms, 0 means not banned
	BanCount       int          `json:"banCount"`
	IsPermanentBan bool         `json:"isPermanentBan"`
	ReportedBy     []ReportMark `json:"reportedBy"`
	Email          string       `json:"email,omitempty"`
	IsAdmin        bool         `json:"isAdmin,omitempty"`
}

// ReportMark records the last accepted report from one reporter.
// At most one entry per reporter serial.
type ReportMark struct {
	ReporterSerial string `json:"reporterSerial"`
	Timestamp      int64  `json:"timestamp"`
}

// Report is one accepted report, appended to durable storage.
type Report struct {
	ID             string `json:"id"`
	Timestamp      int64  `json:"timestamp"`
	ReporterSerial string `json:"reporterSerial"`
	ReporterName   string `json:"reporterName"`
	ReportedSerial string `json:"reportedSerial"`
	ReportedName   string `json:"reportedName"`
	Reason         string `json:"reason"`
	RoomID         string `json:"roomId"`
}
