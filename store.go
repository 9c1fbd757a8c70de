package main

import (
	"bytes"
	"encoding/binary"
	"flag"
	"fmt"
	"log"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"
)

var (
	dbpath = flag.String("db", "blocks.db", "local cache db file")
)

var (
	blockBucket  = []byte("block")
	chunkBucket  = []byte("chunk")
	cameraBucket = []byte("camera")

	store *Store
)

func InitStore() error {
	var path string
	if *dbpath != "" {
		path = *dbpath
	}
	if *serverAddr != "" {
		path = fmt.Sprintf("cache_%s.db", *serverAddr)
	}
	if path == "" {
		return errors.New("empty db path")
	}
	var err error
	store, err = NewStore(path)
	return err
}

// Store is the persistent local cache: fetched blocks, local edits,
// per-chunk server versions and the saved camera state.
type Store struct {
	db *bolt.DB
}

func NewStore(p string) (*Store, error) {
	db, err := bolt.Open(p, 0666, nil)
	if err != nil {
		return nil, errors.Wrap(err, "open cache db")
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{blockBucket, chunkBucket, cameraBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "init cache buckets")
	}
	db.NoSync = true
	return &Store{
		db: db,
	}, nil
}

func (s *Store) UpdateBlock(id Vec3, w int) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(blockBucket)
		key := encodeBlockDbKey(id.Chunkid(), id)
		value := encodeBlockDbValue(w)
		return bkt.Put(key, value)
	})
}

func (s *Store) UpdatePlayerState(state PlayerState) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(cameraBucket)
		buf := new(bytes.Buffer)
		binary.Write(buf, binary.LittleEndian, &state)
		return bkt.Put(cameraBucket, buf.Bytes())
	})
}

func (s *Store) GetPlayerState() PlayerState {
	var state PlayerState
	state.Y = 16
	s.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(cameraBucket)
		value := bkt.Get(cameraBucket)
		if value == nil {
			return nil
		}
		buf := bytes.NewBuffer(value)
		binary.Read(buf, binary.LittleEndian, &state)
		return nil
	})
	return state
}

// RangeBlocks visits every cached block override of one chunk.
func (s *Store) RangeBlocks(id Vec3, f func(bid Vec3, w int)) error {
	return s.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(blockBucket)
		startkey := encodeChunkDbKey(id)
		iter := bkt.Cursor()
		for k, v := iter.Seek(startkey); k != nil; k, v = iter.Next() {
			cid, bid := decodeBlockDbKey(k)
			if cid != id {
				break
			}
			f(bid, decodeBlockDbValue(v))
		}
		return nil
	})
}

func (s *Store) UpdateChunkVersion(id Vec3, version string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(chunkBucket)
		return bkt.Put(encodeChunkDbKey(id), []byte(version))
	})
}

func (s *Store) GetChunkVersion(id Vec3) string {
	var version string
	s.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(chunkBucket)
		v := bkt.Get(encodeChunkDbKey(id))
		if v != nil {
			version = string(v)
		}
		return nil
	})
	return version
}

func (s *Store) Close() {
	s.db.Sync()
	s.db.Close()
}

func encodeChunkDbKey(cid Vec3) []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, [...]int32{int32(cid.X), int32(cid.Y), int32(cid.Z)})
	return buf.Bytes()
}

// Block keys are the chunk id followed by the block id, so one chunk's
// blocks form a contiguous key range.
func encodeBlockDbKey(cid, bid Vec3) []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, [...]int32{
		int32(cid.X), int32(cid.Y), int32(cid.Z),
		int32(bid.X), int32(bid.Y), int32(bid.Z),
	})
	return buf.Bytes()
}

func decodeBlockDbKey(b []byte) (Vec3, Vec3) {
	if len(b) != 4*6 {
		log.Panicf("bad db key length:%d", len(b))
	}
	buf := bytes.NewBuffer(b)
	var arr [6]int32
	binary.Read(buf, binary.LittleEndian, &arr)

	cid := Vec3{int(arr[0]), int(arr[1]), int(arr[2])}
	bid := Vec3{int(arr[3]), int(arr[4]), int(arr[5])}
	if bid.Chunkid() != cid {
		log.Panicf("bad db key: cid:%v, bid:%v", cid, bid)
	}
	return cid, bid
}

func encodeBlockDbValue(w int) []byte {
	value := make([]byte, 4)
	binary.LittleEndian.PutUint32(value, uint32(w))
	return value
}

func decodeBlockDbValue(b []byte) int {
	if len(b) != 4 {
		log.Panicf("bad db value length:%d", len(b))
	}
	return int(binary.LittleEndian.Uint32(b))
}
