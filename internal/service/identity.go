package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"math/big"

	"github.com/anonic-next/internal/constants"
)

const (
	tokenAlphabet  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	letterAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	codeAlphabet   = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// 昵称词库：首词 + 尾词随机拼接
var (
	nicknameFirstParts = []string{
		"Silent", "Misty", "Crimson", "Pale", "Dusty", "Gentle", "Hollow",
		"Amber", "Frozen", "Wandering", "Quiet", "Shadow", "Golden", "Velvet",
		"Distant", "Drifting", "Lunar", "Emerald", "Scarlet", "Nameless",
	}
	nicknameSecondParts = []string{
		"Falcon", "Heron", "Otter", "Lynx", "Crow", "Wolf", "Fox",
		"Raven", "Badger", "Sparrow", "Moth", "Viper", "Stag", "Hare",
		"Owl", "Pike", "Marten", "Swift", "Kestrel", "Ermine",
	}
)

// GenerateToken 生成可达令牌：1 个字母开头 + 8 位字母数字
func GenerateToken() string {
	return randomChar(letterAlphabet) + randomString(tokenAlphabet, 8)
}

// GenerateNickname 从词库随机生成两段式昵称
func GenerateNickname() string {
	first := nicknameFirstParts[randomIndex(len(nicknameFirstParts))]
	second := nicknameSecondParts[randomIndex(len(nicknameSecondParts))]
	return first + " " + second
}

// GenerateLinkCode 生成 URL 安全的高熵链接码，与持有者身份无关
func GenerateLinkCode() string {
	buf := make([]byte, base64.RawURLEncoding.DecodedLen(constants.TempLinkCodeLength))
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand 不可用时退回字母表随机
		return randomString(tokenAlphabet, constants.TempLinkCodeLength)
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}

// ShortCode 由外部标识推导稳定短码：sha256 前 8 字节映射到小写字母数字
//
// 同一外部标识无论轮换多少次身份，短码始终不变。
func ShortCode(peerID int64) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("anonic_%d_uid", peerID)))
	result := make([]byte, 8)
	for i := 0; i < 8; i++ {
		result[i] = codeAlphabet[int(sum[i])%len(codeAlphabet)]
	}
	return string(result)
}

func randomIndex(n int) int {
	if n <= 0 {
		return 0
	}
	idx, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(idx.Int64())
}

func randomChar(alphabet string) string {
	return string(alphabet[randomIndex(len(alphabet))])
}

func randomString(alphabet string, length int) string {
	buf := make([]byte, length)
	for i := range buf {
		buf[i] = alphabet[randomIndex(len(alphabet))]
	}
	return string(buf)
}
