package redis

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"ibtbridge/config"
	"ibtbridge/types"

	"github.com/gomodule/redigo/redis"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var pool *redis.Pool

var ErrNotInitialized = errors.New("redis journal is not initialized")

func timeoutDialOptions() []redis.DialOption {
	return []redis.DialOption{
		redis.DialConnectTimeout(5 * time.Second),
		redis.DialReadTimeout(5 * time.Second),
		redis.DialWriteTimeout(5 * time.Second),
	}
}

func Init(redisAddr string) {
	pool = &redis.Pool{
		MaxIdle: 5,
		Dial:    func() (redis.Conn, error) { return redis.Dial("tcp", redisAddr, timeoutDialOptions()...) },
	}
}

func Close() error {
	if pool == nil {
		return nil
	}
	return pool.Close()
}

func Ping() error {
	if pool == nil {
		return ErrNotInitialized
	}
	conn := pool.Get()
	defer conn.Close()

	_, err := conn.Do("PING")
	return err
}

func recordKey(phase types.Phase, id string) string {
	return fmt.Sprintf("ibtop:%s:%s", phase, id)
}

func phaseSet(phase types.Phase) (string, error) {
	set, ok := config.RedisPhaseSets[string(phase)]
	if !ok {
		return "", fmt.Errorf("no journal set for phase %q", phase)
	}
	return set, nil
}

// note that an operation is stored under exactly one phase
func UpsertOperation(op *types.PendingOperation) error {
	if op == nil {
		return errors.New("null object to store")
	}
	if op.Phase == "" {
		return errors.New("operation cannot have empty phase")
	}
	if pool == nil {
		return ErrNotInitialized
	}
	conn := pool.Get()
	defer conn.Close()

	set, err := phaseSet(op.Phase)
	if err != nil {
		return err
	}
	if op.ID == "" {
		op.ID = uuid.New().String()
	}
	key := recordKey(op.Phase, op.ID)

	opJSON, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("cannot marshal operation to JSON: %s", err.Error())
	}

	_, err = conn.Do("SET", key, opJSON)
	if err != nil {
		log.Printf("error Redis SET: %s", err.Error())
		return err
	}

	// also add the key to the corresponding SET
	_, err = conn.Do("SADD", set, key)
	if err != nil {
		log.Printf("error Redis SADD: %s", err.Error())
		return err
	}

	return nil
}

func ChangeOperationPhase(op *types.PendingOperation, prevPhase types.Phase) error {
	if op == nil {
		return errors.New("null object to store")
	}
	if op.Phase == "" {
		return errors.New("operation cannot have empty phase")
	}
	if pool == nil {
		return ErrNotInitialized
	}
	conn := pool.Get()
	defer conn.Close()

	prevSet, err := phaseSet(prevPhase)
	if err != nil {
		return err
	}
	set, err := phaseSet(op.Phase)
	if err != nil {
		return err
	}
	if op.ID == "" {
		op.ID = uuid.New().String()
	}

	prevKey := recordKey(prevPhase, op.ID)
	key := recordKey(op.Phase, op.ID)

	opJSON, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("cannot marshal operation to JSON: %s", err.Error())
	}

	_, err = conn.Do("SREM", prevSet, prevKey)
	if err != nil {
		log.Printf("error Redis SREM: %s", err.Error())
		return err
	}

	_, err = conn.Do("DEL", prevKey)
	if err != nil {
		log.Printf("error Redis DEL: %s", err.Error())
		return err
	}

	_, err = conn.Do("SET", key, opJSON)
	if err != nil {
		log.Printf("error Redis SET: %s", err.Error())
		return err
	}

	_, err = conn.Do("SADD", set, key)
	if err != nil {
		log.Printf("error Redis SADD: %s", err.Error())
		return err
	}

	return nil
}

// scanPhase calls f for every operation stored under phase until f
// returns false. Keys whose record vanished are skipped.
func scanPhase(conn redis.Conn, phase types.Phase, f func(op *types.PendingOperation) bool) error {
	set, err := phaseSet(phase)
	if err != nil {
		return err
	}

	var cursor int64
	for {
		values, err := redis.Values(conn.Do("SSCAN", set, cursor))
		if err != nil {
			return err
		}

		var opKeys []string
		_, err = redis.Scan(values, &cursor, &opKeys)
		if err != nil {
			return err
		}

		for _, key := range opKeys {
			raw, err := redis.Bytes(conn.Do("GET", key))
			if errors.Is(err, redis.ErrNil) {
				continue
			}
			if err != nil {
				log.Printf("error Redis GET: %s", err.Error())
				return err
			}

			var op types.PendingOperation
			if err := json.Unmarshal(raw, &op); err != nil {
				return err
			}
			if !f(&op) {
				return nil
			}
		}

		if cursor == 0 {
			break
		}
	}
	return nil
}

func FindAllOperationsByPhase(phase string) ([]*types.PendingOperation, error) {
	if _, ok := config.RedisPhaseSets[phase]; !ok {
		return nil, errors.New("redis key not found for phase")
	}
	if pool == nil {
		return nil, ErrNotInitialized
	}
	conn := pool.Get()
	defer conn.Close()

	ops := make([]*types.PendingOperation, 0)
	err := scanPhase(conn, types.Phase(phase), func(op *types.PendingOperation) bool {
		if op.Phase == types.Phase(phase) {
			ops = append(ops, op)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return ops, nil
}

// Attention, this scans every journaled operation
func FindOperationByTxHash(txHash string) (*types.PendingOperation, error) {
	if txHash == "" {
		return nil, errors.New("empty transaction hash")
	}
	if pool == nil {
		return nil, ErrNotInitialized
	}
	conn := pool.Get()
	defer conn.Close()

	var found *types.PendingOperation
	for phase := range config.RedisPhaseSets {
		err := scanPhase(conn, types.Phase(phase), func(op *types.PendingOperation) bool {
			if strings.EqualFold(op.TxHash, txHash) {
				found = op
				return false
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		if found != nil {
			return found, nil
		}
	}
	return nil, nil
}

// Journal stores operations as the submitter moves them between phases.
type Journal struct{}

func (Journal) Save(op types.PendingOperation, previous types.Phase) error {
	if previous == "" {
		return UpsertOperation(&op)
	}
	return ChangeOperationPhase(&op, previous)
}
