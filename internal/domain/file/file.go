package file

// RootFolderID is the folder id of files uploaded outside any folder.
const RootFolderID = "root"

// Receipt statuses.
const (
	StatusConfirmed       = "confirmed"
	StatusDevelopmentMode = "development_mode"
)

// Descriptor is the ledger record of one uploaded file. Records are
// immutable once committed.
type Descriptor struct {
	FileID     string `json:"fileId"`
	ContentID  string `json:"ipfsHash"`
	FileName   string `json:"fileName"`
	FileType   string `json:"fileType"`
	FileSize   int64  `json:"fileSize"`
	FolderID   string `json:"folderId"`
	UploadTime int64  `json:"uploadTime"`
	Uploader   string `json:"uploader"`
}

type Folder struct {
	FolderID    string `json:"folderId"`
	FolderName  string `json:"folderName"`
	CreatedTime int64  `json:"createdTime"`
	Creator     string `json:"creator"`
}

// SignedRequest carries the proof that the caller controls ClaimedAddress.
type SignedRequest struct {
	Message        string
	Signature      []byte
	ClaimedAddress string
}

// Receipt is the ledger's acknowledgement of a write.
type Receipt struct {
	TxHash      string `json:"transactionHash"`
	Status      string `json:"status"`
	BlockNumber uint64 `json:"blockNumber,omitempty"`
	GasUsed     uint64 `json:"gasUsed,omitempty"`
}

// RetrievalMode selects how retrieved bytes are framed for the client.
type RetrievalMode string

const (
	ModeDownload RetrievalMode = "download"
	ModeView     RetrievalMode = "view"
)
