package ledger

import (
	"fmt"
	"math/big"
	"strings"

	"secure-drive/internal/domain/file"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const (
	methodUploadFile     = "uploadFileFor"
	methodCreateFolder   = "createFolderFor"
	methodGetUserFiles   = "getUserFiles"
	methodGetUserFolders = "getUserFolders"
)

// The registry contract. Writes are relayed by the service key on behalf of
// the owner, so the owner is an explicit argument rather than msg.sender.
const registryABI = `[
  {"type":"function","name":"uploadFileFor","stateMutability":"nonpayable","inputs":[
    {"name":"owner","type":"address"},
    {"name":"fileId","type":"string"},
    {"name":"ipfsHash","type":"string"},
    {"name":"fileName","type":"string"},
    {"name":"fileType","type":"string"},
    {"name":"fileSize","type":"uint256"},
    {"name":"folderId","type":"string"}],"outputs":[]},
  {"type":"function","name":"createFolderFor","stateMutability":"nonpayable","inputs":[
    {"name":"owner","type":"address"},
    {"name":"folderId","type":"string"},
    {"name":"folderName","type":"string"}],"outputs":[]},
  {"type":"function","name":"getUserFiles","stateMutability":"view","inputs":[
    {"name":"user","type":"address"}],"outputs":[
    {"name":"","type":"tuple[]","components":[
      {"name":"fileId","type":"string"},
      {"name":"ipfsHash","type":"string"},
      {"name":"fileName","type":"string"},
      {"name":"fileType","type":"string"},
      {"name":"fileSize","type":"uint256"},
      {"name":"uploadTime","type":"uint256"},
      {"name":"uploader","type":"address"},
      {"name":"folderId","type":"string"}]}]},
  {"type":"function","name":"getUserFolders","stateMutability":"view","inputs":[
    {"name":"user","type":"address"}],"outputs":[
    {"name":"","type":"tuple[]","components":[
      {"name":"folderId","type":"string"},
      {"name":"folderName","type":"string"},
      {"name":"createdTime","type":"uint256"},
      {"name":"creator","type":"address"}]}]}
]`

var contractABI = mustParseABI(registryABI)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("ledger: parse contract ABI: %v", err))
	}
	return parsed
}

// fileTuple mirrors the getUserFiles record layout field for field.
type fileTuple struct {
	FileId     string
	IpfsHash   string
	FileName   string
	FileType   string
	FileSize   *big.Int
	UploadTime *big.Int
	Uploader   common.Address
	FolderId   string
}

type folderTuple struct {
	FolderId    string
	FolderName  string
	CreatedTime *big.Int
	Creator     common.Address
}

func decodeFileRecord(t fileTuple) (file.Descriptor, error) {
	if t.FileId == "" {
		return file.Descriptor{}, fmt.Errorf("file record: empty fileId")
	}
	if t.IpfsHash == "" {
		return file.Descriptor{}, fmt.Errorf("file record %s: empty content id", t.FileId)
	}
	size, err := int64Field("fileSize", t.FileSize)
	if err != nil {
		return file.Descriptor{}, fmt.Errorf("file record %s: %w", t.FileId, err)
	}
	uploaded, err := int64Field("uploadTime", t.UploadTime)
	if err != nil {
		return file.Descriptor{}, fmt.Errorf("file record %s: %w", t.FileId, err)
	}
	if t.Uploader == (common.Address{}) {
		return file.Descriptor{}, fmt.Errorf("file record %s: zero uploader", t.FileId)
	}

	if t.FolderId == "" {
		return file.Descriptor{}, fmt.Errorf("file record %s: empty folderId", t.FileId)
	}

	return file.Descriptor{
		FileID:     t.FileId,
		ContentID:  t.IpfsHash,
		FileName:   t.FileName,
		FileType:   t.FileType,
		FileSize:   size,
		FolderID:   t.FolderId,
		UploadTime: uploaded,
		Uploader:   t.Uploader.Hex(),
	}, nil
}

func decodeFolderRecord(t folderTuple) (file.Folder, error) {
	if t.FolderId == "" {
		return file.Folder{}, fmt.Errorf("folder record: empty folderId")
	}
	created, err := int64Field("createdTime", t.CreatedTime)
	if err != nil {
		return file.Folder{}, fmt.Errorf("folder record %s: %w", t.FolderId, err)
	}
	if t.Creator == (common.Address{}) {
		return file.Folder{}, fmt.Errorf("folder record %s: zero creator", t.FolderId)
	}

	return file.Folder{
		FolderID:    t.FolderId,
		FolderName:  t.FolderName,
		CreatedTime: created,
		Creator:     t.Creator.Hex(),
	}, nil
}

func int64Field(name string, v *big.Int) (int64, error) {
	switch {
	case v == nil:
		return 0, fmt.Errorf("%s missing", name)
	case v.Sign() < 0:
		return 0, fmt.Errorf("%s negative", name)
	case !v.IsInt64():
		return 0, fmt.Errorf("%s overflows int64", name)
	}
	return v.Int64(), nil
}
