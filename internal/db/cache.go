package db

import (
	"strconv"

	"lanzou-go/internal/helpers"

	"github.com/bytedance/sonic"
	"github.com/coocood/freecache"
)

type CacheGlobal struct {
	CacheInstance *freecache.Cache
	CacheSize     int
}

var DefaultExpire = 300 // 默认5分钟过期

// freecache 单条记录不能超过缓存大小的 1/1024，另扣除记录头和 md5 键
const (
	minCacheSize   = 512 * 1024
	entryOverhead  = 128
	minPieceLength = 64
)

func NewCache(cacheSize int) *CacheGlobal {
	return &CacheGlobal{
		CacheInstance: freecache.NewCache(cacheSize),
		CacheSize:     cacheSize,
	}
}

// expire设置为-1则代表取默认值
func (c *CacheGlobal) Set(key string, value []byte, expire int) {
	if err := c.set(key, value, expire); err != nil {
		helpers.AppLogger.Warnf("写入缓存 %s 失败: %v", key, err)
	}
}

func (c *CacheGlobal) set(key string, value []byte, expire int) error {
	if expire == -1 {
		expire = DefaultExpire
	}
	return c.CacheInstance.Set(cacheKey(key), value, expire)
}

// PieceSize 单条记录能存放的最大数据长度
func (c *CacheGlobal) PieceSize() int {
	size := max(c.CacheSize, minCacheSize)
	return max(size/1024-entryOverhead, minPieceLength)
}

func (c *CacheGlobal) Get(key string) []byte {
	value, err := c.CacheInstance.Get(cacheKey(key))
	if err != nil {
		return nil
	}
	return value
}

// Del 同时删除 SetJSON 写入的分片
func (c *CacheGlobal) Del(key string) {
	if n, ok := c.pieceCount(key); ok {
		for i := 0; i < n; i++ {
			c.CacheInstance.Del(cacheKey(pieceKey(key, i)))
		}
	}
	c.CacheInstance.Del(cacheKey(key))
}

// SetJSON 序列化后按 PieceSize 分片写入，key 本身只记录分片数量
func (c *CacheGlobal) SetJSON(key string, v any, expire int) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return err
	}
	piece := c.PieceSize()
	n := 0
	for start := 0; start < len(data); start += piece {
		end := min(start+piece, len(data))
		if err := c.set(pieceKey(key, n), data[start:end], expire); err != nil {
			return err
		}
		n++
	}
	return c.set(key, []byte(strconv.Itoa(n)), expire)
}

// GetJSON 命中时返回 true，任一分片缺失都视为未命中
func (c *CacheGlobal) GetJSON(key string, v any) bool {
	n, ok := c.pieceCount(key)
	if !ok {
		return false
	}
	data := make([]byte, 0, n*c.PieceSize())
	for i := 0; i < n; i++ {
		part := c.Get(pieceKey(key, i))
		if part == nil {
			return false
		}
		data = append(data, part...)
	}
	return sonic.Unmarshal(data, v) == nil
}

func (c *CacheGlobal) pieceCount(key string) (int, bool) {
	header := c.Get(key)
	if header == nil {
		return 0, false
	}
	n, err := strconv.Atoi(string(header))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func pieceKey(key string, i int) string {
	return key + "#" + strconv.Itoa(i)
}

func cacheKey(key string) []byte {
	return []byte(helpers.MD5Hash(key))
}
