package main

import (
	"flag"
	"log"
	"net"
	"net/rpc"
	"strings"

	gocraft "github.com/icexin/gocraft-server/client"
	"github.com/icexin/gocraft-server/proto"
	"github.com/pkg/errors"
)

var (
	serverAddr = flag.String("s", "", "server address")

	client *gocraft.Client
)

// Inbound events from the server are queued here and drained at the
// top of each tick, so the world is only ever touched on the main
// thread.
var (
	blockEvents  = make(chan BlockUpdate, 256)
	playerEvents = make(chan remotePlayer, 256)
	removeEvents = make(chan int32, 16)

	// latest-wins outbox for the per-tick position report
	stateOut = make(chan PlayerState, 1)
)

type remotePlayer struct {
	id    int32
	state PlayerState
}

func InitClient() error {
	if *serverAddr == "" {
		return nil
	}
	addr := *serverAddr
	if !strings.Contains(addr, ":") {
		addr += ":8421"
	}
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return errors.Wrap(err, "connect server")
	}
	client = gocraft.NewClient()
	client.RegisterService("Block", &BlockService{})
	client.RegisterService("Player", &PlayerService{})
	client.Start(conn)
	go stateSender()
	return nil
}

// The sync protocol addresses chunks by column, so all vertical
// chunks of a column share one fetch and one version entry.
func columnKey(cid Vec3) Vec3 {
	return Vec3{cid.X, 0, cid.Z}
}

// ClientFetchChunk pulls the server's block overrides for the column
// containing cid and applies the ones falling inside that chunk.
func ClientFetchChunk(cid Vec3, f func(bid Vec3, w int)) {
	if client == nil {
		return
	}
	req := proto.FetchChunkRequest{
		P: cid.X,
		Q: cid.Z,
	}
	if store != nil {
		req.Version = store.GetChunkVersion(columnKey(cid))
	}
	rep := new(proto.FetchChunkResponse)
	err := client.Call("Block.FetchChunk", req, rep)
	if err == rpc.ErrShutdown {
		return
	}
	if err != nil {
		log.Panic(err)
	}
	applyFetchedBlocks(cid, rep.Blocks, f)
	if store != nil && req.Version != rep.Version {
		store.UpdateChunkVersion(columnKey(cid), rep.Version)
	}
}

// applyFetchedBlocks caches every block of the fetched column and
// hands the ones inside cid to f. The version advances per column, so
// a fetch for one chunk is the only time its column siblings see this
// data; dropping their blocks here would lose them for good.
func applyFetchedBlocks(cid Vec3, blocks [][4]int, f func(bid Vec3, w int)) {
	for _, b := range blocks {
		bid := Vec3{b[0], b[1], b[2]}
		if store != nil {
			store.UpdateBlock(bid, b[3])
		}
		if bid.Chunkid() != cid {
			continue
		}
		f(bid, b[3])
	}
}

func ClientUpdateBlock(id Vec3, w int) {
	if client == nil {
		return
	}
	cid := id.Chunkid()
	req := &proto.UpdateBlockRequest{
		Id: client.ClientId,
		P:  cid.X,
		Q:  cid.Z,
		X:  id.X,
		Y:  id.Y,
		Z:  id.Z,
		W:  w,
	}
	rep := new(proto.UpdateBlockResponse)
	err := client.Call("Block.UpdateBlock", req, rep)
	if err == rpc.ErrShutdown {
		return
	}
	if err != nil {
		log.Panic(err)
	}
	if store != nil {
		store.UpdateChunkVersion(columnKey(cid), rep.Version)
	}
}

// pushPlayerState hands the tick's position report to the sender,
// replacing any report still waiting.
func pushPlayerState(state PlayerState) {
	if client == nil {
		return
	}
	for {
		select {
		case stateOut <- state:
			return
		default:
			select {
			case <-stateOut:
			default:
			}
		}
	}
}

// stateSender runs off the tick loop: it reports the local position
// and feeds back the peer states the server returns.
func stateSender() {
	for state := range stateOut {
		req := &proto.UpdateStateRequest{
			Id: client.ClientId,
		}
		s := &req.State
		s.X, s.Y, s.Z, s.Rx, s.Ry = state.X, state.Y, state.Z, state.Rx, state.Ry
		rep := new(proto.UpdateStateResponse)
		err := client.Call("Player.UpdateState", req, rep)
		if err == rpc.ErrShutdown {
			return
		}
		if err != nil {
			log.Panic(err)
		}

		for id, p := range rep.Players {
			select {
			case playerEvents <- remotePlayer{id, PlayerState{
				X: p.X, Y: p.Y, Z: p.Z, Rx: p.Rx, Ry: p.Ry,
			}}:
			default:
			}
		}
	}
}

type BlockService struct {
}

// UpdateBlock is called by the server when a peer edits a block.
func (s *BlockService) UpdateBlock(req *proto.UpdateBlockRequest, rep *proto.UpdateBlockResponse) error {
	log.Printf("rpc::UpdateBlock:%v", *req)
	select {
	case blockEvents <- BlockUpdate{
		Id:         Vec3{req.X, req.Y, req.Z},
		W:          req.W,
		fromServer: true,
	}:
	default:
		log.Printf("block event queue full, dropping update at %v", Vec3{req.X, req.Y, req.Z})
	}
	return nil
}

type PlayerService struct {
}

func (s *PlayerService) RemovePlayer(req *proto.RemovePlayerRequest, rep *proto.RemovePlayerResponse) error {
	select {
	case removeEvents <- req.Id:
	default:
	}
	return nil
}
