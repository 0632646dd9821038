package imagepkg

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	"github.com/youruser/matchboard/internal/constants"
	"github.com/youruser/matchboard/internal/fonts"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

type fakeFetcher struct {
	bodies map[string][]byte
	calls  atomic.Int32
	seen   chan string
}

func (f *fakeFetcher) Fetch(ctx context.Context, src string) ([]byte, error) {
	f.calls.Add(1)
	if f.seen != nil {
		f.seen <- src
	}
	b, ok := f.bodies[src]
	if !ok {
		return nil, errors.New("connection refused")
	}
	return b, nil
}

func TestRewrite(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"data:image/png;base64,AAAA", "data:image/png;base64,AAAA"},
		{"https://example.com/logo.png", "https://example.com/logo.png"},
		{"https://cdn.pandascore.co/images/team/image/3216/navi.png",
			"https://corsproxy.io/?https%3A%2F%2Fcdn.pandascore.co%2Fimages%2Fteam%2Fimage%2F3216%2Fnavi.png"},
		{"https://img.cdn.pandascore.co/a b.png?x=1&y=(2)",
			"https://corsproxy.io/?https%3A%2F%2Fimg.cdn.pandascore.co%2Fa%20b.png%3Fx%3D1%26y%3D(2)"},
		{"https://notcdn.pandascore.co.evil.com/x.png", "https://notcdn.pandascore.co.evil.com/x.png"},
		{"/assets/logo.png", "/assets/logo.png"},
	}
	for _, tc := range tests {
		if got := ProxyURL(tc.in); got != tc.want {
			t.Errorf("ProxyURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRewriteDisabled(t *testing.T) {
	rw := Rewriter{Hosts: []string{"cdn.pandascore.co"}}
	u := "https://cdn.pandascore.co/x.png"
	if got := rw.Rewrite(u); got != u {
		t.Errorf("Rewrite without relay = %q", got)
	}
}

func TestInitials(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"", "TM"},
		{"Natus Vincere", "NV"},
		{"FaZe", "FA"},
		{"Spirit", "SP"},
		{"G2", "G2"},
		{"X", "X"},
		{"team liquid academy", "TL"},
		{"Ørsted esports", "ØE"},
		{"évolution", "ÉV"},
	}
	for _, tc := range tests {
		if got := Initials(tc.name); got != tc.want {
			t.Errorf("Initials(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func newPlaceholders(t *testing.T) *Placeholders {
	t.Helper()
	fm, err := fonts.Default()
	if err != nil {
		t.Fatalf("fonts: %v", err)
	}
	return NewPlaceholders(fm)
}

func samePixels(a, b image.Image) bool {
	if a.Bounds() != b.Bounds() {
		return false
	}
	bo := a.Bounds()
	for y := bo.Min.Y; y < bo.Max.Y; y++ {
		for x := bo.Min.X; x < bo.Max.X; x++ {
			if color.NRGBAModel.Convert(a.At(x, y)) != color.NRGBAModel.Convert(b.At(x, y)) {
				return false
			}
		}
	}
	return true
}

func TestPlaceholderDeterministic(t *testing.T) {
	p := newPlaceholders(t)
	a := p.Make("Natus Vincere")
	b := p.Make("Natus Vincere")
	if a.Bounds().Dx() != PlaceholderSize || a.Bounds().Dy() != PlaceholderSize {
		t.Fatalf("placeholder is %v, want %dx%d", a.Bounds(), PlaceholderSize, PlaceholderSize)
	}
	if !samePixels(a, b) {
		t.Error("two placeholders for the same name differ")
	}
	if samePixels(a, p.Make("FaZe")) {
		t.Error("placeholders for NV and FA are identical")
	}
	if !samePixels(p.Make(""), p.Make("Team Mousesports")) {
		t.Error("empty name should render the TM placeholder")
	}

	center := color.NRGBAModel.Convert(a.At(2, 24)).(color.NRGBA)
	if center.R != 0x82 || center.G != 0x82 || center.B != 0x82 {
		t.Errorf("circle fill = %v, want #828282", center)
	}
	corner := color.NRGBAModel.Convert(a.At(0, 0)).(color.NRGBA)
	if corner.A != 0 {
		t.Errorf("corner alpha = %d, want transparent", corner.A)
	}
}

func TestPlaceholderCache(t *testing.T) {
	c := newPlaceholders(t).NewCache()
	c.Prime("Natus Vincere", "FaZe", "Natus Vincere")
	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
	if c.For("FaZe") != c.For("FaZe") {
		t.Error("For returned a fresh image for a cached name")
	}
	if c.For("") != c.Default() {
		t.Error("empty name should map to the default placeholder")
	}
}

func TestUnique(t *testing.T) {
	got := Unique([]string{"", "a", "b", "a", "", "c", "b"})
	want := []string{"a", "b", "c"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Unique = %v, want %v", got, want)
	}
}

func TestResolveLogosPartialSuccess(t *testing.T) {
	good := "https://example.com/good.png"
	svg := "https://example.com/logo.svg"
	corrupt := "https://example.com/corrupt.png"
	unreachable := "https://unreachable.invalid/x.png"
	f := &fakeFetcher{bodies: map[string][]byte{
		good:    pngBytes(t, 100, 50),
		svg:     []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10"><rect width="10" height="10" fill="#f00"/></svg>`),
		corrupt: []byte("not an image"),
	}}
	r := NewResolver(f, Rewriter{}, nil, zerolog.Nop())

	cache := r.ResolveLogos(context.Background(), []string{good, "", corrupt, good, unreachable, svg})
	if len(cache) != 2 {
		t.Fatalf("resolved %d logos, want 2: %v", len(cache), cache)
	}
	if img, ok := cache[good]; !ok || img.Bounds().Dx() != 100 {
		t.Errorf("good logo missing or wrong size")
	}
	if img, ok := cache[svg]; !ok || img.Bounds().Dx() != svgRasterSize {
		t.Errorf("svg logo missing or wrong size")
	}
	if _, ok := cache[corrupt]; ok {
		t.Error("corrupt logo should not resolve")
	}
	if _, ok := cache[unreachable]; ok {
		t.Error("unreachable logo should not resolve")
	}
	if n := f.calls.Load(); n != 4 {
		t.Errorf("fetched %d times, want 4 (deduplicated)", n)
	}
}

func TestResolveLogosKeysByOriginalURL(t *testing.T) {
	orig := "https://cdn.pandascore.co/images/team/1.png"
	proxied := ProxyURL(orig)
	f := &fakeFetcher{bodies: map[string][]byte{proxied: pngBytes(t, 10, 10)}}
	r := NewResolver(f, DefaultRewriter, nil, zerolog.Nop())

	cache := r.ResolveLogos(context.Background(), []string{orig})
	if _, ok := cache[orig]; !ok {
		t.Fatalf("logo not stored under original url: %v", cache)
	}
	if _, ok := cache[proxied]; ok {
		t.Error("logo stored under proxied url")
	}
}

func TestResolveLogosEmpty(t *testing.T) {
	r := NewResolver(&fakeFetcher{}, Rewriter{}, nil, zerolog.Nop())
	if cache := r.ResolveLogos(context.Background(), nil); cache == nil || len(cache) != 0 {
		t.Errorf("ResolveLogos(nil) = %v, want empty map", cache)
	}
}

func TestResolveLogosConcurrent(t *testing.T) {
	urls := []string{"https://a/1.png", "https://a/2.png", "https://a/3.png"}
	bodies := map[string][]byte{}
	for _, u := range urls {
		bodies[u] = pngBytes(t, 4, 4)
	}
	release := make(chan struct{})
	f := &blockingFetcher{fakeFetcher: fakeFetcher{bodies: bodies}, started: make(chan struct{}, len(urls)), release: release}
	r := NewResolver(f, Rewriter{}, nil, zerolog.Nop())

	done := make(chan LogoCache)
	go func() { done <- r.ResolveLogos(context.Background(), urls) }()
	for range urls {
		select {
		case <-f.started:
		case <-time.After(5 * time.Second):
			t.Fatal("fetches did not start concurrently")
		}
	}
	close(release)
	if cache := <-done; len(cache) != len(urls) {
		t.Errorf("resolved %d, want %d", len(cache), len(urls))
	}
}

type blockingFetcher struct {
	fakeFetcher
	started chan struct{}
	release chan struct{}
}

func (f *blockingFetcher) Fetch(ctx context.Context, src string) ([]byte, error) {
	f.started <- struct{}{}
	<-f.release
	return f.fakeFetcher.Fetch(ctx, src)
}

func TestResolverUsesMemo(t *testing.T) {
	u := "https://example.com/a.png"
	f := &fakeFetcher{bodies: map[string][]byte{u: pngBytes(t, 8, 8)}}
	memo := NewMemo(8, time.Minute)
	r := NewResolver(f, Rewriter{}, memo, zerolog.Nop())

	r.ResolveLogos(context.Background(), []string{u})
	r.ResolveLogos(context.Background(), []string{u})
	if n := f.calls.Load(); n != 1 {
		t.Errorf("fetched %d times, want 1", n)
	}
	if memo.Len() != 1 {
		t.Errorf("memo has %d entries, want 1", memo.Len())
	}
}

func TestMemoExpiry(t *testing.T) {
	m := NewMemo(8, 50*time.Millisecond)
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))

	m.Put("u", img)
	if _, ok := m.Get("u"); !ok {
		t.Fatal("fresh entry missing")
	}
	time.Sleep(150 * time.Millisecond)
	if _, ok := m.Get("u"); ok {
		t.Fatal("expired entry returned")
	}

	var nilMemo *Memo
	nilMemo.Put("u", img)
	if _, ok := nilMemo.Get("u"); ok || nilMemo.Len() != 0 {
		t.Error("nil memo should remember nothing")
	}
	if NewMemo(0, time.Minute) != nil || NewMemo(8, 0) != nil {
		t.Error("zero size or ttl should disable the memo")
	}
}

func TestMemoSizeLimit(t *testing.T) {
	m := NewMemo(2, time.Minute)
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))

	m.Put("a", img)
	m.Put("b", img)
	m.Get("a")
	m.Put("c", img)

	if m.Len() != 2 {
		t.Errorf("Len = %d, want 2", m.Len())
	}
	if _, ok := m.Get("b"); ok {
		t.Error("least recently used entry should be evicted")
	}
	for _, k := range []string{"a", "c"} {
		if _, ok := m.Get(k); !ok {
			t.Errorf("%s evicted", k)
		}
	}
}

func TestHTTPFetcher(t *testing.T) {
	body := pngBytes(t, 3, 3)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(body)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5*time.Second, true)
	got, err := f.Fetch(context.Background(), srv.URL+"/logo.png")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Error("body mismatch")
	}
	if _, err := f.Fetch(context.Background(), srv.URL+"/missing.png"); err == nil {
		t.Error("expected error for 404")
	}
}

func TestSourceFetcher(t *testing.T) {
	body := pngBytes(t, 2, 2)
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "back_1.png"), body, 0o644); err != nil {
		t.Fatal(err)
	}
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(body)
	ctx := context.Background()

	f := SourceFetcher{HTTP: &fakeFetcher{}, Root: root}
	for _, src := range []string{dataURL, "back_1.png"} {
		got, err := f.Fetch(ctx, src)
		if err != nil {
			t.Fatalf("Fetch(%.30q): %v", src, err)
		}
		if !bytes.Equal(got, body) {
			t.Errorf("Fetch(%.30q): body mismatch", src)
		}
	}
	if _, err := f.Fetch(ctx, "missing.png"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing file err = %v, want ErrNotFound", err)
	}
	if _, err := f.Fetch(ctx, "../../etc/passwd"); err == nil {
		t.Error("path escaping the root should fail")
	}
	if _, err := (SourceFetcher{HTTP: &fakeFetcher{}}).Fetch(ctx, "back_1.png"); !errors.Is(err, ErrFileSource) {
		t.Errorf("rootless file err = %v, want ErrFileSource", err)
	}
}

// pngHeader returns a PNG signature and IHDR chunk declaring a w×h RGBA
// image, with no pixel data behind it.
func pngHeader(w, h uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], w)
	binary.BigEndian.PutUint32(ihdr[4:], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 6 // truecolor with alpha
	chunk := append([]byte("IHDR"), ihdr...)

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	buf.Write(chunk)
	binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestDecodeRejectsOversizedImage(t *testing.T) {
	if _, err := Decode(pngHeader(30000, 30000)); !errors.Is(err, ErrImageTooLarge) {
		t.Fatalf("Decode err = %v, want ErrImageTooLarge", err)
	}

	bomb := "https://cdn.example.com/bomb.png"
	ok := "https://cdn.example.com/ok.png"
	f := &fakeFetcher{bodies: map[string][]byte{bomb: pngHeader(30000, 30000), ok: pngBytes(t, 4, 4)}}
	cache := NewResolver(f, Rewriter{}, nil, zerolog.Nop()).ResolveLogos(context.Background(), []string{bomb, ok})
	if _, found := cache[bomb]; found {
		t.Error("oversized logo should stay unresolved")
	}
	if _, found := cache[ok]; !found {
		t.Error("normal logo should resolve")
	}
}

func TestSourceFetcherRejectsLargeFile(t *testing.T) {
	root := t.TempDir()
	fp, err := os.Create(filepath.Join(root, "huge.png"))
	if err != nil {
		t.Fatal(err)
	}
	if err := fp.Truncate(constants.MaxImageBytes + 1); err != nil {
		t.Fatal(err)
	}
	fp.Close()

	_, err = SourceFetcher{Root: root}.Fetch(context.Background(), "huge.png")
	if !errors.Is(err, ErrImageTooLarge) {
		t.Errorf("err = %v, want ErrImageTooLarge", err)
	}
}

func TestHTTPFetcherBodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(bytes.Repeat([]byte{0xff}, 4096))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5*time.Second, true)
	f.client.MaxResponseBodySize = 1024
	if _, err := f.Fetch(context.Background(), srv.URL+"/big.png"); err == nil {
		t.Error("want error for a body over the limit")
	}
}

func TestHTTPFetcherRefusesPrivateHosts(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write(pngBytes(t, 1, 1))
	}))
	defer srv.Close()

	_, err := NewHTTPFetcher(2*time.Second, false).Fetch(context.Background(), srv.URL+"/logo.png")
	if err == nil || !strings.Contains(err.Error(), ErrPrivateAddress.Error()) {
		t.Errorf("err = %v, want a private address refusal", err)
	}
	if hits.Load() != 0 {
		t.Error("request reached the loopback server")
	}
}

func TestIsPublicIP(t *testing.T) {
	tests := map[string]bool{
		"127.0.0.1":       false,
		"10.1.2.3":        false,
		"172.16.0.1":      false,
		"192.168.1.1":     false,
		"169.254.169.254": false,
		"100.64.0.1":      false,
		"0.0.0.0":         false,
		"::1":             false,
		"fe80::1":         false,
		"fd00::1":         false,
		"8.8.8.8":         true,
		"104.16.0.1":      true,
		"2606:4700::1":    true,
	}
	for addr, want := range tests {
		if got := isPublicIP(net.ParseIP(addr)); got != want {
			t.Errorf("isPublicIP(%s) = %v, want %v", addr, got, want)
		}
	}
}

func TestDecodeFormats(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 6, 4))
	var jp bytes.Buffer
	if err := jpeg.Encode(&jp, src, nil); err != nil {
		t.Fatal(err)
	}
	for name, b := range map[string][]byte{"png": pngBytes(t, 6, 4), "jpeg": jp.Bytes()} {
		img, err := Decode(b)
		if err != nil {
			t.Fatalf("Decode %s: %v", name, err)
		}
		if img.Bounds().Dx() != 6 || img.Bounds().Dy() != 4 {
			t.Errorf("Decode %s: bounds %v", name, img.Bounds())
		}
	}
	if _, err := Decode([]byte("<html></html>")); err == nil {
		t.Error("expected error decoding html")
	}
}

func TestEncode(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 5, 5))
	for _, tc := range []struct {
		in   string
		want imaging.Format
		mime string
	}{
		{"", imaging.PNG, "image/png"},
		{"png", imaging.PNG, "image/png"},
		{"image/jpeg", imaging.JPEG, "image/jpeg"},
		{".jpg", imaging.JPEG, "image/jpeg"},
	} {
		f, err := ParseFormat(tc.in)
		if err != nil {
			t.Fatalf("ParseFormat(%q): %v", tc.in, err)
		}
		if f != tc.want || ContentType(f) != tc.mime {
			t.Errorf("ParseFormat(%q) = %v (%s)", tc.in, f, ContentType(f))
		}
		var buf bytes.Buffer
		if err := Encode(&buf, img, EncodeOptions{Format: f, Quality: 0.9}); err != nil {
			t.Fatalf("Encode %v: %v", f, err)
		}
		if _, _, err := image.Decode(&buf); err != nil {
			t.Errorf("decode %v output: %v", f, err)
		}
	}
	if _, err := ParseFormat("webm"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestJPEGQuality(t *testing.T) {
	for q, want := range map[float64]int{0: 100, 1: 100, 0.92: 92, 0.001: 1, 3: 100} {
		if got := jpegQuality(q); got != want {
			t.Errorf("jpegQuality(%g) = %d, want %d", q, got, want)
		}
	}
}

func TestGenerateQRImage(t *testing.T) {
	img, err := GenerateQRImage("https://example.com/schedule", 72)
	if err != nil {
		t.Fatalf("GenerateQRImage: %v", err)
	}
	if img.Bounds().Dx() != 72 {
		t.Errorf("qr width = %d, want 72", img.Bounds().Dx())
	}
}
