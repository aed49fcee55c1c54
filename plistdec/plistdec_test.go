package plistdec

import (
	"testing"
	"time"

	"github.com/retrochat/ichat-recover/tree"
)

// A minimal keyed archive shaped like a real .ichat file: the root
// NSMutableArray's second element is itself an array whose third element
// is the message-record list.
const keyedArchiveXML = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>$archiver</key><string>NSKeyedArchiver</string>
	<key>$version</key><integer>100000</integer>
	<key>$top</key>
	<dict>
		<key>root</key><dict><key>CF$UID</key><integer>1</integer></dict>
	</dict>
	<key>$objects</key>
	<array>
		<string>$null</string>
		<dict>
			<key>$class</key><dict><key>CF$UID</key><integer>8</integer></dict>
			<key>NS.objects</key>
			<array>
				<dict><key>CF$UID</key><integer>2</integer></dict>
				<dict><key>CF$UID</key><integer>3</integer></dict>
			</array>
		</dict>
		<string>metadata</string>
		<dict>
			<key>$class</key><dict><key>CF$UID</key><integer>8</integer></dict>
			<key>NS.objects</key>
			<array>
				<dict><key>CF$UID</key><integer>4</integer></dict>
				<dict><key>CF$UID</key><integer>4</integer></dict>
				<dict><key>CF$UID</key><integer>5</integer></dict>
			</array>
		</dict>
		<string>filler</string>
		<dict>
			<key>$class</key><dict><key>CF$UID</key><integer>8</integer></dict>
			<key>NS.objects</key>
			<array>
				<dict><key>CF$UID</key><integer>6</integer></dict>
			</array>
		</dict>
		<dict>
			<key>$class</key><dict><key>CF$UID</key><integer>9</integer></dict>
			<key>NS.keys</key>
			<array>
				<dict><key>CF$UID</key><integer>7</integer></dict>
				<dict><key>CF$UID</key><integer>11</integer></dict>
			</array>
			<key>NS.objects</key>
			<array>
				<dict><key>CF$UID</key><integer>10</integer></dict>
				<dict><key>CF$UID</key><integer>12</integer></dict>
			</array>
		</dict>
		<string>Time</string>
		<dict>
			<key>$classname</key><string>NSMutableArray</string>
			<key>$classes</key>
			<array><string>NSMutableArray</string><string>NSArray</string><string>NSObject</string></array>
		</dict>
		<dict>
			<key>$classname</key><string>NSMutableDictionary</string>
			<key>$classes</key>
			<array><string>NSMutableDictionary</string><string>NSDictionary</string><string>NSObject</string></array>
		</dict>
		<dict>
			<key>$class</key><dict><key>CF$UID</key><integer>13</integer></dict>
			<key>NS.time</key><real>260000000</real>
		</dict>
		<string>Note</string>
		<dict>
			<key>$class</key><dict><key>CF$UID</key><integer>14</integer></dict>
			<key>NS.string</key><string>hello</string>
		</dict>
		<dict>
			<key>$classname</key><string>NSDate</string>
			<key>$classes</key>
			<array><string>NSDate</string><string>NSObject</string></array>
		</dict>
		<dict>
			<key>$classname</key><string>NSMutableString</string>
			<key>$classes</key>
			<array><string>NSMutableString</string><string>NSString</string><string>NSObject</string></array>
		</dict>
	</array>
</dict>
</plist>`

func TestDecodeKeyedArchive(t *testing.T) {
	root, err := Decode([]byte(keyedArchiveXML))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if root.Kind() != tree.Seq {
		t.Fatalf("root kind = %v, want seq", root.Kind())
	}
	if got, ok := root.At(0).Text(); !ok || got != "metadata" {
		t.Errorf("root[0] = %q, %v", got, ok)
	}

	records := root.At(1).At(2)
	if records.Kind() != tree.Seq || records.Len() != 1 {
		t.Fatalf("records kind = %v len = %d, want seq of 1", records.Kind(), records.Len())
	}

	record := records.At(0)
	when, ok := record.Key("Time").Time()
	if !ok {
		t.Fatal("record Time is not a date-time")
	}
	want := appleEpoch.Add(260000000 * time.Second)
	if !when.Equal(want) {
		t.Errorf("Time = %v, want %v", when, want)
	}

	if got, ok := record.Key("Note").Text(); !ok || got != "hello" {
		t.Errorf("Note = %q, %v, want resolved NSMutableString", got, ok)
	}
}

func TestDecodePlainPlist(t *testing.T) {
	const plain = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>name</key><string>alice</string>
	<key>payload</key><data>aGVsbG8=</data>
	<key>count</key><integer>2</integer>
</dict>
</plist>`

	v, err := Decode([]byte(plain))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got, ok := v.Key("name").Text(); !ok || got != "alice" {
		t.Errorf("name = %q, %v", got, ok)
	}
	if got, ok := v.Key("payload").Bytes(); !ok || string(got) != "hello" {
		t.Errorf("payload = %q, %v", got, ok)
	}
	if _, ok := v.Key("count").Scalar(); !ok {
		t.Error("count is not a scalar")
	}

	// Dict keys come from an unordered Go map; the decoder must fix a
	// sorted order so repeated decodes build identical trees.
	want := []string{"count", "name", "payload"}
	got := v.Keys()
	if len(got) != len(want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Keys() = %v, want %v", got, want)
		}
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode([]byte("not a plist at all")); err == nil {
		t.Fatal("Decode() accepted garbage input")
	}
}
