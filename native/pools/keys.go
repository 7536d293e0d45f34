package pools

import "encoding/binary"

// Storage layout. Era-scoped records put the big-endian era first so retention
// pruning can walk one era with a single prefix scan; pool-scoped records put
// the pool first so destroy sweeps can do the same.
var (
	keyTVL              = []byte("pools/tvl")
	keySlashDestination = []byte("pools/slash-destination")

	currencyPrefix     = []byte("pools/currency/")      // id4
	nextRatePrefix     = []byte("pools/next-rate/")     // id4
	ratePrefix         = []byte("pools/rate/")          // era8 + id4
	poolPrefix         = []byte("pools/pool/")          // id4
	memberPrefix       = []byte("pools/member/")        // pool4 + addr20
	unbondPrefix       = []byte("pools/unbond/")        // pool4 + era8
	exposurePrefix     = []byte("pools/exposure/")      // era8 + pool4
	rewardPrefix       = []byte("pools/reward/")        // era8 + pool4
	claimPrefix        = []byte("pools/claimed/")       // era8 + pool4 + addr20
	missedPrefix       = []byte("pools/missed/")        // era8 + pool4
	durationPrefix     = []byte("pools/duration/")      // era8
	backingPrefix      = []byte("pools/backing/")       // era8 + validator20
	slashCounterPrefix = []byte("pools/slash-counter/") // era8 + validator20 + funds20
	fundsIndexPrefix   = []byte("pools/funds-index/")   // addr20
	boostMemberPrefix  = []byte("pools/boost-member/")  // pool4 + addr20
	boostUserPrefix    = []byte("pools/boost-user/")    // addr20
)

func appendUint32(key []byte, v uint32) []byte {
	return binary.BigEndian.AppendUint32(key, v)
}

func appendUint64(key []byte, v uint64) []byte {
	return binary.BigEndian.AppendUint64(key, v)
}

func currencyKey(id uint32) []byte {
	return appendUint32(append([]byte(nil), currencyPrefix...), id)
}

func nextRateKey(id uint32) []byte {
	return appendUint32(append([]byte(nil), nextRatePrefix...), id)
}

func rateEraPrefix(era uint64) []byte {
	return appendUint64(append([]byte(nil), ratePrefix...), era)
}

func rateKey(era uint64, id uint32) []byte {
	return appendUint32(rateEraPrefix(era), id)
}

func poolKey(id uint32) []byte {
	return appendUint32(append([]byte(nil), poolPrefix...), id)
}

func memberPoolPrefix(poolID uint32) []byte {
	return appendUint32(append([]byte(nil), memberPrefix...), poolID)
}

func memberKey(poolID uint32, user [20]byte) []byte {
	return append(memberPoolPrefix(poolID), user[:]...)
}

func unbondPoolPrefix(poolID uint32) []byte {
	return appendUint32(append([]byte(nil), unbondPrefix...), poolID)
}

func unbondKey(poolID uint32, era uint64) []byte {
	return appendUint64(unbondPoolPrefix(poolID), era)
}

func exposureEraPrefix(era uint64) []byte {
	return appendUint64(append([]byte(nil), exposurePrefix...), era)
}

func exposureKey(era uint64, poolID uint32) []byte {
	return appendUint32(exposureEraPrefix(era), poolID)
}

func rewardEraPrefix(era uint64) []byte {
	return appendUint64(append([]byte(nil), rewardPrefix...), era)
}

func rewardKey(era uint64, poolID uint32) []byte {
	return appendUint32(rewardEraPrefix(era), poolID)
}

func claimEraPrefix(era uint64) []byte {
	return appendUint64(append([]byte(nil), claimPrefix...), era)
}

func claimKey(era uint64, poolID uint32, user [20]byte) []byte {
	return append(appendUint32(claimEraPrefix(era), poolID), user[:]...)
}

func missedEraPrefix(era uint64) []byte {
	return appendUint64(append([]byte(nil), missedPrefix...), era)
}

func missedKey(era uint64, poolID uint32) []byte {
	return appendUint32(missedEraPrefix(era), poolID)
}

func durationKey(era uint64) []byte {
	return appendUint64(append([]byte(nil), durationPrefix...), era)
}

func backingEraPrefix(era uint64) []byte {
	return appendUint64(append([]byte(nil), backingPrefix...), era)
}

func backingKey(era uint64, validator [20]byte) []byte {
	return append(backingEraPrefix(era), validator[:]...)
}

func slashCounterEraPrefix(era uint64) []byte {
	return appendUint64(append([]byte(nil), slashCounterPrefix...), era)
}

func slashCounterKey(era uint64, validator, funds [20]byte) []byte {
	key := append(slashCounterEraPrefix(era), validator[:]...)
	return append(key, funds[:]...)
}

func fundsIndexKey(addr [20]byte) []byte {
	return append(append([]byte(nil), fundsIndexPrefix...), addr[:]...)
}

func boostMemberPoolPrefix(poolID uint32) []byte {
	return appendUint32(append([]byte(nil), boostMemberPrefix...), poolID)
}

func boostMemberKey(poolID uint32, user [20]byte) []byte {
	return append(boostMemberPoolPrefix(poolID), user[:]...)
}

func boostUserKey(user [20]byte) []byte {
	return append(append([]byte(nil), boostUserPrefix...), user[:]...)
}
