package chain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/Nkovaturient/blocklock-kit/internal/common"
)

// Canonical event signatures of the release contract. Topic 0 is the
// keccak256 of exactly these strings.
const (
	createdSignature  = "Created(uint256,address,bytes32,uint256)"
	revealedSignature = "Revealed(uint256,bytes)"
)

var (
	// CreatedTopic identifies Created(requestId indexed, creator indexed,
	// fileCidHash, unlockAtBlock).
	CreatedTopic = crypto.Keccak256Hash([]byte(createdSignature))

	// RevealedTopic identifies Revealed(requestId indexed, payload).
	RevealedTopic = crypto.Keccak256Hash([]byte(revealedSignature))

	createdDataArgs  abi.Arguments
	revealedDataArgs abi.Arguments
)

func init() {
	bytes32T, err := abi.NewType("bytes32", "", nil)
	if err != nil {
		panic(err)
	}
	uint256T, err := abi.NewType("uint256", "", nil)
	if err != nil {
		panic(err)
	}
	bytesT, err := abi.NewType("bytes", "", nil)
	if err != nil {
		panic(err)
	}

	createdDataArgs = abi.Arguments{
		{Name: "fileCidHash", Type: bytes32T},
		{Name: "unlockAtBlock", Type: uint256T},
	}
	revealedDataArgs = abi.Arguments{
		{Name: "payload", Type: bytesT},
	}
}

// CreatedEvent is the decoded creation event.
type CreatedEvent struct {
	RequestID     *big.Int
	Creator       ethcommon.Address
	FileCidHash   ethcommon.Hash
	UnlockAtBlock *big.Int
	Raw           types.Log
}

// RevealedEvent is the decoded reveal event carrying the oracle-decrypted
// payload bytes.
type RevealedEvent struct {
	RequestID *big.Int
	Payload   []byte
	Raw       types.Log
}

// DecodeCreated parses a raw log as a Created event. Logs with the wrong
// topic 0, topic count or data shape fail with common.ErrEventParseFailed;
// callers skip those rather than aborting a scan.
func DecodeCreated(lg types.Log) (*CreatedEvent, error) {
	if len(lg.Topics) != 3 || lg.Topics[0] != CreatedTopic {
		return nil, fmt.Errorf("%w: not a Created log", common.ErrEventParseFailed)
	}

	values, err := createdDataArgs.Unpack(lg.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrEventParseFailed, err)
	}

	fileCidHash, ok := values[0].([32]byte)
	if !ok {
		return nil, fmt.Errorf("%w: fileCidHash shape", common.ErrEventParseFailed)
	}
	unlockAtBlock, ok := values[1].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%w: unlockAtBlock shape", common.ErrEventParseFailed)
	}

	return &CreatedEvent{
		RequestID:     new(big.Int).SetBytes(lg.Topics[1].Bytes()),
		Creator:       ethcommon.BytesToAddress(lg.Topics[2].Bytes()),
		FileCidHash:   ethcommon.Hash(fileCidHash),
		UnlockAtBlock: unlockAtBlock,
		Raw:           lg,
	}, nil
}

// DecodeRevealed parses a raw log as a Revealed event.
func DecodeRevealed(lg types.Log) (*RevealedEvent, error) {
	if len(lg.Topics) != 2 || lg.Topics[0] != RevealedTopic {
		return nil, fmt.Errorf("%w: not a Revealed log", common.ErrEventParseFailed)
	}

	values, err := revealedDataArgs.Unpack(lg.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrEventParseFailed, err)
	}

	data, ok := values[0].([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: payload shape", common.ErrEventParseFailed)
	}

	return &RevealedEvent{
		RequestID: new(big.Int).SetBytes(lg.Topics[1].Bytes()),
		Payload:   data,
		Raw:       lg,
	}, nil
}

// RequestIDTopic encodes a requestId as the indexed-argument topic used in
// log filters.
func RequestIDTopic(requestID *big.Int) ethcommon.Hash {
	return ethcommon.BigToHash(requestID)
}
